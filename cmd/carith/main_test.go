// Copyright 2020 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.
package main_test

import (
	"bytes"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func carithCmd(args ...string) (string, error) {
	cmd := exec.Command("go", "run", ".")
	cmd.Args = append(cmd.Args, args...)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestCompressExtractRoundTrip(t *testing.T) {
	tmpdir := t.TempDir()
	for _, tc := range []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"small", []byte("BANANA")},
		{"random", randomBytes(200 * 1024)},
	} {
		plain := filepath.Join(tmpdir, tc.name)
		if err := os.WriteFile(plain, tc.data, 0644); err != nil {
			t.Fatalf("%v: %v", tc.name, err)
		}

		if out, err := carithCmd("compress", "--progress=false", plain); err != nil {
			t.Fatalf("%v: compress: %v: %v", tc.name, out, err)
		}

		compressed := plain + ".carith"
		if _, err := os.Stat(compressed); err != nil {
			t.Fatalf("%v: expected %v to exist: %v", tc.name, compressed, err)
		}

		if out, err := carithCmd("extract", "--progress=false", compressed); err != nil {
			t.Fatalf("%v: extract: %v: %v", tc.name, out, err)
		}

		got, err := os.ReadFile(plain + ".plain")
		if err != nil {
			t.Fatalf("%v: reading extracted file: %v", tc.name, err)
		}
		if !bytes.Equal(got, tc.data) {
			t.Errorf("%v: round-trip mismatch", tc.name)
		}
	}
}

func TestTellReportsHeader(t *testing.T) {
	tmpdir := t.TempDir()
	plain := filepath.Join(tmpdir, "data")
	if err := os.WriteFile(plain, randomBytes(50*1024), 0644); err != nil {
		t.Fatal(err)
	}
	if out, err := carithCmd("compress", "--progress=false", plain); err != nil {
		t.Fatalf("compress: %v: %v", out, err)
	}
	out, err := carithCmd("tell", plain+".carith")
	if err != nil {
		t.Fatalf("tell: %v: %v", out, err)
	}
	if !bytes.Contains([]byte(out), []byte("scheme")) {
		t.Errorf("tell output missing header summary: %q", out)
	}
}

func TestExtractRejectsMissingFile(t *testing.T) {
	if _, err := carithCmd("extract", "--progress=false", "/nonexistent/path.carith"); err == nil {
		t.Fatal("expected error extracting a nonexistent file")
	}
}

func randomBytes(n int) []byte {
	rnd := rand.New(rand.NewSource(42))
	buf := make([]byte, n)
	rnd.Read(buf)
	return buf
}
