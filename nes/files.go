package nes

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
)

// Files returns the file names and contents the export is written as,
// each name starting with base. Banked exports also record the first
// nametable row of each bank.
func (e *Export) Files(base string) map[string][]byte {
	files := map[string][]byte{
		base + ".nam":         e.Nametable,
		base + ".exram":       e.ExRAM,
		base + "_spr.chr":     e.SpriteCHR,
		base + ".oam":         e.OAM,
		base + "_palette.dat": e.Palette,
	}
	if len(e.BackgroundCHR) == 1 {
		files[base+"_bg.chr"] = e.BackgroundCHR[0]
	} else {
		for i, chr := range e.BackgroundCHR {
			files[fmt.Sprintf("%s_bg_%d.chr", base, i)] = chr
		}
		rows := make([]byte, len(e.BankRows))
		for i, y := range e.BankRows {
			rows[i] = byte(y)
		}
		files[base+"_banks.dat"] = rows
	}
	return files
}

// removeStale removes any file an export of the other layout would have
// written, so ReadFiles cannot pick up an older background.
func (e *Export) removeStale(dir, base string) error {
	var names []string
	if len(e.BackgroundCHR) == 1 {
		names = append(names, base+"_banks.dat")
		for i := 0; ; i++ {
			name := fmt.Sprintf("%s_bg_%d.chr", base, i)
			if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
				break
			}
			names = append(names, name)
		}
	} else {
		names = append(names, base+"_bg.chr")
	}

	for _, name := range names {
		if err := os.Remove(filepath.Join(dir, name)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// WriteFiles writes the export into dir as a set of files named after base,
// removing any background files left by an export with a different bank
// layout.
func (e *Export) WriteFiles(dir, base string) error {
	if err := e.removeStale(dir, base); err != nil {
		return err
	}
	for name, b := range e.Files(base) {
		if err := ioutil.WriteFile(filepath.Join(dir, name), b, 0644); err != nil {
			return err
		}
	}
	return nil
}

// ReadFiles reads an export written by WriteFiles.
func ReadFiles(dir, base string) (*Export, error) {
	read := func(name string) ([]byte, error) {
		return ioutil.ReadFile(filepath.Join(dir, base+name))
	}

	e := new(Export)

	var err error
	for name, b := range map[string]*[]byte{
		".nam":         &e.Nametable,
		".exram":       &e.ExRAM,
		"_spr.chr":     &e.SpriteCHR,
		".oam":         &e.OAM,
		"_palette.dat": &e.Palette,
	} {
		if *b, err = read(name); err != nil {
			return nil, err
		}
	}

	chr, err := read("_bg.chr")
	switch {
	case err == nil:
		e.BackgroundCHR = [][]byte{chr}
		e.BankRows = []int{0}
		return e, nil
	case !os.IsNotExist(err):
		return nil, err
	}

	rows, err := read("_banks.dat")
	if err != nil {
		return nil, err
	}
	for i, y := range rows {
		if chr, err = read(fmt.Sprintf("_bg_%d.chr", i)); err != nil {
			return nil, err
		}
		e.BackgroundCHR = append(e.BackgroundCHR, chr)
		e.BankRows = append(e.BankRows, int(y))
	}

	return e, nil
}
