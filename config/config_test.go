package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestFromYamlDecodesRunDefaults(t *testing.T) {
	Convey("Given a run config wrapped in the kind/def envelope", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "run.yaml")
		contents := `
kind: run
def:
  seed: 42
  samples: 100
  algorithm: tau-split
  repeats: 4
`
		err := os.WriteFile(path, []byte(contents), 0o644)
		So(err, ShouldBeNil)

		cfg, err := FromYaml(path)
		So(err, ShouldBeNil)
		So(*cfg.Seed, ShouldEqual, uint64(42))
		So(*cfg.Samples, ShouldEqual, 100)
		So(*cfg.Algorithm, ShouldEqual, "tau-split")
		So(*cfg.Repeats, ShouldEqual, 4)
	})
}

func TestFromYamlOmittedFieldsAreNil(t *testing.T) {
	Convey("Given a config that only sets the seed", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "run.yaml")
		err := os.WriteFile(path, []byte("kind: run\ndef:\n  seed: 7\n"), 0o644)
		So(err, ShouldBeNil)

		cfg, err := FromYaml(path)
		So(err, ShouldBeNil)
		So(*cfg.Seed, ShouldEqual, uint64(7))
		So(cfg.Samples, ShouldBeNil)
		So(cfg.Algorithm, ShouldBeNil)
		So(cfg.Repeats, ShouldBeNil)
	})
}
