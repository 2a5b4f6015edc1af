package artifacts

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Bundle layout: a zstd-compressed tar archive with one JSON file per
// artifact under artifacts/, and a trailing SHA256SUMS manifest
// covering every artifact entry. Import refuses archives whose entries
// don't match their recorded checksums.
const (
	bundleArtifactDir  = "artifacts"
	bundleChecksumFile = "SHA256SUMS"
)

// ExportBundle writes the named artifacts to a bundle file at dst. An
// empty names list exports every artifact in the store.
func (s *Store) ExportBundle(dst string, names ...string) error {
	if len(names) == 0 {
		for _, a := range s.Artifacts() {
			names = append(names, a.Name)
		}
	}

	selected := make([]*Artifact, 0, len(names))
	for _, name := range names {
		a, err := s.Artifact(name)
		if err != nil {
			return err
		}
		selected = append(selected, a)
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create bundle: %w", err)
	}
	defer func() { _ = f.Close() }()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return fmt.Errorf("init zstd: %w", err)
	}
	tw := tar.NewWriter(zw)

	var sums strings.Builder
	for _, a := range selected {
		data, err := json.MarshalIndent(a, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal artifact %s: %w", a.Name, err)
		}

		name := path.Join(bundleArtifactDir, a.Name+".json")
		if err := writeTarEntry(tw, name, data); err != nil {
			return err
		}

		sum := sha256.Sum256(data)
		fmt.Fprintf(&sums, "%s  %s\n", hex.EncodeToString(sum[:]), name)
	}

	if err := writeTarEntry(tw, bundleChecksumFile, []byte(sums.String())); err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("close tar: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zstd: %w", err)
	}
	return f.Close()
}

// ImportBundle reads a bundle file, verifies every entry against the
// checksum manifest, and saves the artifacts into the store. Nothing is
// saved if any checksum fails.
func (s *Store) ImportBundle(src string) ([]*Artifact, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	defer func() { _ = f.Close() }()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBundleMalformed, err)
	}
	defer zr.Close()

	entries := make(map[string][]byte)
	var sums []byte

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBundleMalformed, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBundleMalformed, err)
		}

		name := path.Clean(hdr.Name)
		if name == bundleChecksumFile {
			sums = data
			continue
		}
		entries[name] = data
	}

	if sums == nil {
		return nil, fmt.Errorf("%w: missing %s", ErrBundleMalformed, bundleChecksumFile)
	}

	expected, err := parseChecksums(sums)
	if err != nil {
		return nil, err
	}

	imported := make([]*Artifact, 0, len(entries))
	for name, data := range entries {
		want, ok := expected[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s not in manifest", ErrBundleCorrupted, name)
		}
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) != want {
			return nil, fmt.Errorf("%w: %s", ErrBundleCorrupted, name)
		}

		var a Artifact
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBundleMalformed, name, err)
		}
		imported = append(imported, &a)
	}

	for name := range expected {
		if _, ok := entries[name]; !ok {
			return nil, fmt.Errorf("%w: %s missing from archive", ErrBundleCorrupted, name)
		}
	}

	for _, a := range imported {
		if err := s.SaveArtifact(a); err != nil {
			return nil, err
		}
	}
	return imported, nil
}

// writeTarEntry writes one regular file into the archive.
func writeTarEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name:    name,
		Mode:    0600,
		Size:    int64(len(data)),
		ModTime: time.Now().UTC(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write tar header %s: %w", name, err)
	}
	if _, err := io.Copy(tw, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write tar entry %s: %w", name, err)
	}
	return nil
}

// parseChecksums parses the "HEX  path" lines of the manifest.
func parseChecksums(data []byte) (map[string]string, error) {
	expected := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		sum, name, ok := strings.Cut(line, "  ")
		if !ok || len(sum) != sha256.Size*2 {
			return nil, fmt.Errorf("%w: bad manifest line %q", ErrBundleMalformed, line)
		}
		expected[name] = sum
	}
	return expected, nil
}
