package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/banshee-data/triangulator/internal/codec"
	"github.com/banshee-data/triangulator/internal/geom"
	"github.com/banshee-data/triangulator/internal/store"
)

// ParsePoints reads whitespace-separated "x y" pairs, one per line. Blank
// lines and lines starting with # are skipped.
func ParsePoints(r io.Reader) (geom.PointSet, error) {
	points := geom.PointSet{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want 2 fields, got %d", line, len(fields))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad x: %w", line, err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad y: %w", line, err)
		}
		points = append(points, geom.Point{X: x, Y: y})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// RunImport parses r, encodes it and stores it under id in the database at
// dbPath. It returns the ID used and the number of points stored.
func RunImport(ctx context.Context, dbPath, id string, r io.Reader) (string, int, error) {
	points, err := ParsePoints(r)
	if err != nil {
		return "", 0, err
	}
	data, err := codec.EncodePointSet(points)
	if err != nil {
		return "", 0, err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return "", 0, err
	}
	defer st.Close()

	if id == "" {
		id = uuid.NewString()
	}
	if err := st.Put(ctx, id, data); err != nil {
		return "", 0, err
	}
	return id, len(points), nil
}
