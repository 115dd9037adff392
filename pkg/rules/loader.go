package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// MaxRuleFileSize caps the size of a project rule file.
const MaxRuleFileSize = 1 << 20

// ruleFile is the YAML document shape of a project rule file.
type ruleFile struct {
	Version string `yaml:"version"`
	Rules   []Rule `yaml:"rules"`
}

// LoadFile reads project rules from a YAML file. A missing file is not an
// error; it yields an empty rule list so a project can run on system rules
// alone.
func LoadFile(path string) ([]Rule, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &RuleConfigError{File: path, Message: "cannot access rule file", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &RuleConfigError{File: path, Message: "not a regular file"}
	}
	if info.Size() > MaxRuleFileSize {
		return nil, &RuleConfigError{
			File:    path,
			Message: fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), MaxRuleFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &RuleConfigError{File: path, Message: "cannot read rule file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &RuleConfigError{File: path, Message: "file contains invalid UTF-8"}
	}

	var doc ruleFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &RuleConfigError{File: path, Message: "YAML parsing failed", Cause: err}
	}
	return doc.Rules, nil
}

// LoadInto loads project rules from path and installs them into the set. The
// previous project rules stay active when the load fails.
func LoadInto(set *Set, path string) error {
	loaded, err := LoadFile(path)
	if err != nil {
		return err
	}
	if err := set.ReplaceProject(loaded); err != nil {
		if rce, ok := err.(*RuleConfigError); ok && rce.File == "" {
			rce.File = path
		}
		return err
	}
	return nil
}
