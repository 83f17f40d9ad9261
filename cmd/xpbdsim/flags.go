package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/san-kum/xpbdsim/internal/optim"
)

// parseOverride splits a --set argument of the form key=value.
func parseOverride(s string) (string, float64, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return "", 0, fmt.Errorf("invalid override %q, want key=value", s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return key, v, nil
}

// parseRange turns key=lo:hi:n into n evenly spaced values. A bare
// key=v1,v2,... lists the values directly.
func parseRange(s string) (string, []float64, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return "", nil, fmt.Errorf("invalid range %q, want key=lo:hi:n", s)
	}

	if parts := strings.Split(raw, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil || err3 != nil || n < 1 {
			return "", nil, fmt.Errorf("invalid range %q, want key=lo:hi:n", s)
		}
		return key, optim.Linspace(lo, hi, n), nil
	}

	var values []float64
	for _, f := range strings.Split(raw, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid value in %q: %w", s, err)
		}
		values = append(values, v)
	}
	return key, values, nil
}

func parseAxis(s string) (int, error) {
	switch strings.ToLower(s) {
	case "x", "0":
		return 0, nil
	case "y", "1":
		return 1, nil
	case "z", "2":
		return 2, nil
	}
	return 0, fmt.Errorf("invalid axis %q, want x, y or z", s)
}
