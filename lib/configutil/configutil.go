package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// reads a configuration file, `name` should come with a file extension.
// the following files are merged, where a higher number wins:
// 1. <name>.<ext>
// 2. <name>.local.<ext>
//
// $VAR and ${VAR} references in either file are expanded from the
// environment before parsing, so passwords can stay out of the file.
func ReadConfig[T any](name string) (T, error) {
	var out T
	found := false

	ext := filepath.Ext(name)
	localPath := strings.TrimSuffix(name, ext) + ".local" + ext

	ok, err := decodeInto(name, &out)
	if err != nil {
		return out, err
	}
	found = found || ok

	var override T
	ok, err = decodeInto(localPath, &override)
	if err != nil {
		return out, err
	}
	if ok {
		err = mergo.Merge(&out, override, mergo.WithOverride)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", localPath, err)
		}
		slog.Info("merging config with local overrides", "local", localPath)
		found = true
	}

	if !found {
		return out, os.ErrNotExist
	}
	return out, nil
}

func decodeInto(path string, out any) (bool, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return false, nil
	}
	expanded := os.ExpandEnv(string(raw))
	err = json5.Unmarshal([]byte(expanded), out)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// ReadRecursively is ReadConfig but it walks up from the working directory
// to the filesystem root until it finds a file matching the name.
func ReadRecursively[T any](name string) (T, error) {
	current, err := os.Getwd()
	if err != nil {
		var empty T
		return empty, err
	}
	return ReadRecursivelyFrom[T](current, name)
}

func ReadRecursivelyFrom[T any](start, name string) (T, error) {
	var empty T
	if filepath.IsAbs(name) {
		return ReadConfig[T](name)
	}

	current, err := filepath.Abs(start)
	if err != nil {
		return empty, err
	}
	for {
		config, err := ReadConfig[T](filepath.Join(current, name))
		if err == nil {
			return config, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return empty, err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return empty, os.ErrNotExist
		}
		current = parent
	}
}
