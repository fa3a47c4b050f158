package nes

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	magic   = "OPAL"
	version = 1

	maxBlob = 1 << 20
)

var (
	errNotEnough  = errors.New("nes: not enough export data")
	errTooMuch    = errors.New("nes: too much export data")
	errBadMagic   = errors.New("nes: not an export")
	errBadVersion = errors.New("nes: unsupported export version")
	errBadLength  = errors.New("nes: invalid length")
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = errNotEnough
	}
	return err
}

func writeBlob(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBlob(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, errNotEnough
	}
	if n > maxBlob {
		return nil, errBadLength
	}
	b := make([]byte, n)
	if err := readFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// MarshalBinary encodes the export into binary form and returns the result.
func (e *Export) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)

	b.WriteString(magic)
	b.WriteByte(version)

	for _, blob := range [][]byte{e.Nametable, e.ExRAM} {
		if err := writeBlob(b, blob); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(b, binary.LittleEndian, uint32(len(e.BackgroundCHR))); err != nil {
		return nil, err
	}
	for _, chr := range e.BackgroundCHR {
		if err := writeBlob(b, chr); err != nil {
			return nil, err
		}
	}

	rows := make([]uint32, len(e.BankRows))
	for i, y := range e.BankRows {
		rows[i] = uint32(y)
	}
	if err := binary.Write(b, binary.LittleEndian, uint32(len(rows))); err != nil {
		return nil, err
	}
	if err := binary.Write(b, binary.LittleEndian, rows); err != nil {
		return nil, err
	}

	for _, blob := range [][]byte{e.SpriteCHR, e.OAM, e.Palette} {
		if err := writeBlob(b, blob); err != nil {
			return nil, err
		}
	}

	return b.Bytes(), nil
}

// UnmarshalBinary decodes the export from binary form.
func (e *Export) UnmarshalBinary(b []byte) error {
	r := bytes.NewReader(b)

	var header [len(magic) + 1]byte
	if err := readFull(r, header[:]); err != nil {
		return err
	}
	if string(header[:len(magic)]) != magic {
		return errBadMagic
	}
	if header[len(magic)] != version {
		return errBadVersion
	}

	var err error
	if e.Nametable, err = readBlob(r); err != nil {
		return err
	}
	if e.ExRAM, err = readBlob(r); err != nil {
		return err
	}

	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return errNotEnough
	}
	if n > TilesY {
		return errBadLength
	}
	e.BackgroundCHR = make([][]byte, n)
	for i := range e.BackgroundCHR {
		if e.BackgroundCHR[i], err = readBlob(r); err != nil {
			return err
		}
	}

	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return errNotEnough
	}
	if n > TilesY {
		return errBadLength
	}
	rows := make([]uint32, n)
	if err := binary.Read(r, binary.LittleEndian, rows); err != nil {
		return errNotEnough
	}
	e.BankRows = make([]int, n)
	for i, y := range rows {
		e.BankRows[i] = int(y)
	}

	if e.SpriteCHR, err = readBlob(r); err != nil {
		return err
	}
	if e.OAM, err = readBlob(r); err != nil {
		return err
	}
	if e.Palette, err = readBlob(r); err != nil {
		return err
	}

	if r.Len() > 0 {
		return errTooMuch
	}

	return nil
}
