// Package network parses the textual chemical reaction network grammar of
// spec.md §6: species declarations ("NAME = NUMBER") and mass-action
// reaction lines ("lhs -> rhs, RATE"), producing the initial state vector,
// the parsed Reaction list, and the ordered species names the rest of the
// engine needs. Grounded on the original implementation's parsers.rs, but
// hand-rolled over regexp/strings rather than a parser-combinator library:
// no combinator crate analog (nom) appears anywhere in the retrieved pack
// for this shape of line grammar.
package network

import (
	"bufio"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"tausplit/reaction"
)

var (
	assignmentRe = regexp.MustCompile(`^([A-Za-z0-9]+)\s*=\s*([0-9]+)$`)
	termRe       = regexp.MustCompile(`^([0-9]*)([A-Za-z0-9]+)$`)
)

type term struct {
	name  string
	coeff uint64
}

type rawReaction struct {
	inputs  []term
	outputs []term
	rate    float64
	file    string
	line    int
	text    string
}

// parseState accumulates declarations and reactions across one or more
// files, mirroring the original ParseState's two-phase design: lines are
// collected first, and species names are resolved to indices only once
// every file has been read (so a reaction may reference a species declared
// later in the same file, or in a later file).
type parseState struct {
	order  []string
	values map[string]int64
	raw    []rawReaction
}

func newParseState() *parseState {
	return &parseState{values: map[string]int64{}}
}

func (p *parseState) setInitial(name string, amount int64) {
	if _, ok := p.values[name]; !ok {
		p.order = append(p.order, name)
	}
	p.values[name] = amount
}

// ParseFiles reads every file in order and merges their species
// declarations and reactions into a single network, matching the original
// CLI's "for path in &args.data" loop (spec.md SPEC_FULL "Multiple data
// files"). Reactant declarations across files accumulate; a later "= N"
// for the same species overrides an earlier one in the same way a single
// file's repeated assignment would.
func ParseFiles(paths []string) (initial []int64, reactions []*reaction.Reaction, names []string, err error) {
	state := newParseState()
	for _, path := range paths {
		if err = parseFile(path, state); err != nil {
			return nil, nil, nil, err
		}
	}
	return state.resolve()
}

func parseFile(path string, state *parseState) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		text := scanner.Text()
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if err := parseLine(path, lineNo, trimmed, state); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func parseLine(file string, lineNo int, text string, state *parseState) error {
	if strings.Contains(text, "->") {
		return parseReactionLine(file, lineNo, text, state)
	}
	return parseAssignmentLine(file, lineNo, text, state)
}

func parseAssignmentLine(file string, lineNo int, text string, state *parseState) error {
	m := assignmentRe.FindStringSubmatch(text)
	if m == nil {
		return &ParseError{File: file, Line: lineNo, Text: text, Reason: "malformed declaration line, expected NAME = NUMBER"}
	}
	amount, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return &ParseError{File: file, Line: lineNo, Text: text, Reason: "initial population is not a valid integer"}
	}
	state.setInitial(m[1], amount)
	return nil
}

func parseReactionLine(file string, lineNo int, text string, state *parseState) error {
	arrowIdx := strings.Index(text, "->")
	lhs := text[:arrowIdx]
	rest := text[arrowIdx+2:]

	commaIdx := strings.LastIndex(rest, ",")
	if commaIdx < 0 {
		return &ParseError{File: file, Line: lineNo, Text: text, Reason: "reaction line is missing a rate (expected a trailing \", RATE\")"}
	}
	rhs := rest[:commaIdx]
	rateStr := strings.TrimSpace(rest[commaIdx+1:])

	rate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil || rate <= 0 {
		return &ParseError{File: file, Line: lineNo, Text: text, Reason: "reaction rate is not a valid positive real number"}
	}

	inputs, err := parseTerms(file, lineNo, text, lhs)
	if err != nil {
		return err
	}
	outputs, err := parseTerms(file, lineNo, text, rhs)
	if err != nil {
		return err
	}

	state.raw = append(state.raw, rawReaction{inputs: inputs, outputs: outputs, rate: rate, file: file, line: lineNo, text: text})
	return nil
}

func parseTerms(file string, lineNo int, fullText, side string) ([]term, error) {
	side = strings.TrimSpace(side)
	if side == "" || side == "∅" {
		return nil, nil
	}
	var terms []term
	for _, part := range strings.Split(side, "+") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, &ParseError{File: file, Line: lineNo, Text: fullText, Reason: "empty term in reaction side"}
		}
		m := termRe.FindStringSubmatch(part)
		if m == nil {
			return nil, &ParseError{File: file, Line: lineNo, Text: fullText, Reason: "malformed reaction term " + strconv.Quote(part)}
		}
		coeff := uint64(1)
		if m[1] != "" {
			v, err := strconv.ParseUint(m[1], 10, 64)
			if err != nil {
				return nil, &ParseError{File: file, Line: lineNo, Text: fullText, Reason: "coefficient overflow in term " + strconv.Quote(part)}
			}
			coeff = v
		}
		terms = append(terms, term{name: m[2], coeff: coeff})
	}
	return terms, nil
}

// resolve assigns every declared species a stable index (in first-seen
// declaration order) and builds each Reaction against those indices,
// failing with a *ParseError naming the offending line when a reaction
// refers to an undeclared species (spec.md §6's hard parse error).
func (p *parseState) resolve() (initial []int64, reactions []*reaction.Reaction, names []string, err error) {
	index := make(map[string]int, len(p.order))
	for i, name := range p.order {
		index[name] = i
	}
	initial = make([]int64, len(p.order))
	for name, v := range p.values {
		initial[index[name]] = v
	}
	names = append([]string(nil), p.order...)

	for _, rr := range p.raw {
		inputs, err := resolveInputs(rr, index)
		if err != nil {
			return nil, nil, nil, err
		}
		stoi, err := resolveStoichiometry(rr, index)
		if err != nil {
			return nil, nil, nil, err
		}
		reactions = append(reactions, reaction.New(inputs, stoi, rr.rate))
	}
	return initial, reactions, names, nil
}

func resolveInputs(rr rawReaction, index map[string]int) ([]reaction.Input, error) {
	counts := map[int]uint64{}
	var order []int
	for _, t := range rr.inputs {
		idx, ok := index[t.name]
		if !ok {
			return nil, &ParseError{File: rr.file, Line: rr.line, Text: rr.text, Reason: "undefined reactant " + strconv.Quote(t.name)}
		}
		if _, seen := counts[idx]; !seen {
			order = append(order, idx)
		}
		counts[idx] += t.coeff
	}
	sort.Ints(order)
	inputs := make([]reaction.Input, len(order))
	for i, idx := range order {
		inputs[i] = reaction.Input{Species: idx, Multiplicity: counts[idx]}
	}
	return inputs, nil
}

func resolveStoichiometry(rr rawReaction, index map[string]int) ([]reaction.StoiEntry, error) {
	diff := map[int]int64{}
	var order []int
	addTerm := func(name string, delta int64) error {
		idx, ok := index[name]
		if !ok {
			return &ParseError{File: rr.file, Line: rr.line, Text: rr.text, Reason: "undefined reactant " + strconv.Quote(name)}
		}
		if _, seen := diff[idx]; !seen {
			order = append(order, idx)
		}
		diff[idx] += delta
		return nil
	}
	for _, t := range rr.inputs {
		if err := addTerm(t.name, -int64(t.coeff)); err != nil {
			return nil, err
		}
	}
	for _, t := range rr.outputs {
		if err := addTerm(t.name, int64(t.coeff)); err != nil {
			return nil, err
		}
	}
	sort.Ints(order)
	var stoi []reaction.StoiEntry
	for _, idx := range order {
		if d := diff[idx]; d != 0 {
			stoi = append(stoi, reaction.StoiEntry{Species: idx, Delta: d})
		}
	}
	return stoi, nil
}
