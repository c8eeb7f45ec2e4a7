//go:build mage

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type lineCount struct {
	Prod int `json:"prod"`
	Test int `json:"test"`
}

// Stats prints Go line counts per package directory as JSON.
func Stats() error {
	counts := make(map[string]*lineCount)

	err := filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			switch d.Name() {
			case "vendor", ".git", binaryDir, "magefiles":
				return filepath.SkipDir
			}
			if strings.HasPrefix(d.Name(), "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		dir := filepath.Dir(path)
		if counts[dir] == nil {
			counts[dir] = &lineCount{}
		}
		if strings.HasSuffix(path, "_test.go") {
			counts[dir].Test += n
		} else {
			counts[dir].Prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(counts, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		n++
	}
	return n, scanner.Err()
}
