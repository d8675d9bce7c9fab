// Package simulation holds the deterministic provider generators. Every
// function here is pure: the same request always yields the same answer.
package simulation

import (
	"crypto/md5"
	"encoding/hex"
	"math"
	"strconv"
)

// hexSlice returns md5(key) as hex and parses the [from,to) hex digits.
func hexSlice(key string, from, to int) int {
	sum := md5.Sum([]byte(key))
	digest := hex.EncodeToString(sum[:])
	n, _ := strconv.ParseInt(digest[from:to], 16, 64)
	return int(n)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
