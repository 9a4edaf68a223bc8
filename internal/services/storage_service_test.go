package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

type fakeMirror struct {
	objects map[string][]byte
	calls   []string
}

func (m *fakeMirror) FetchContract(_ context.Context, key string) ([]byte, error) {
	m.calls = append(m.calls, key)
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrStoredFileNotFound
	}
	return data, nil
}

func testRoots(t *testing.T) []StorageRoot {
	t.Helper()
	return []StorageRoot{
		{Dir: t.TempDir()},
		{Dir: t.TempDir()},
		{Dir: t.TempDir(), StripPrivate: true},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestContractCandidatesRejectsInvalidPointers(t *testing.T) {
	svc := NewStorageService(testRoots(t), nil, zap.NewNop())
	invalid := []string{
		"",
		"uploads/contracts/a.pdf",
		"private/uploads/other/a.pdf",
		"private/uploads/contracts/../../etc/passwd",
		"private/uploads/contracts/..",
		"../private/uploads/contracts/a.pdf",
		"private\\uploads\\contracts\\..\\secret.pdf",
		"private/uploads/contracts/",
		"private/uploads/contracts/a\x00.pdf",
		"public/private/uploads/contracts/a.pdf",
	}
	for _, p := range invalid {
		if got := svc.ContractCandidates(p); len(got) != 0 {
			t.Errorf("ContractCandidates(%q) = %v, want none", p, got)
		}
	}
}

func TestContractCandidatesOnePerRoot(t *testing.T) {
	roots := testRoots(t)
	svc := NewStorageService(roots, nil, zap.NewNop())

	for _, pointer := range []string{
		"private/uploads/contracts/signed.pdf",
		"/private/uploads/contracts/signed.pdf",
		"//private/uploads/contracts/./signed.pdf",
	} {
		got := svc.ContractCandidates(pointer)
		want := []string{
			filepath.Join(roots[0].Dir, "private", "uploads", "contracts", "signed.pdf"),
			filepath.Join(roots[1].Dir, "private", "uploads", "contracts", "signed.pdf"),
			filepath.Join(roots[2].Dir, "uploads", "contracts", "signed.pdf"),
		}
		if len(got) != len(want) {
			t.Fatalf("ContractCandidates(%q) returned %d candidates, want %d", pointer, len(got), len(want))
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("candidate %d = %q, want %q", i, got[i], want[i])
			}
		}
	}
}

func TestOpenContractPrecedence(t *testing.T) {
	roots := testRoots(t)
	svc := NewStorageService(roots, nil, zap.NewNop())
	pointer := "private/uploads/contracts/signed.pdf"

	writeFile(t, filepath.Join(roots[1].Dir, "private", "uploads", "contracts", "signed.pdf"), "deploy")
	writeFile(t, filepath.Join(roots[2].Dir, "uploads", "contracts", "signed.pdf"), "env")

	f, err := svc.OpenContract(context.Background(), pointer)
	if err != nil {
		t.Fatalf("OpenContract() error = %v", err)
	}
	defer f.Body.Close()
	body, _ := io.ReadAll(f.Body)
	if string(body) != "deploy" {
		t.Errorf("expected deployment root to win, got %q", body)
	}
	if f.Size != int64(len("deploy")) || f.Name != "signed.pdf" {
		t.Errorf("unexpected file info %+v", f)
	}

	writeFile(t, filepath.Join(roots[0].Dir, "private", "uploads", "contracts", "signed.pdf"), "cwd")
	f, err = svc.OpenContract(context.Background(), pointer)
	if err != nil {
		t.Fatalf("OpenContract() error = %v", err)
	}
	defer f.Body.Close()
	body, _ = io.ReadAll(f.Body)
	if string(body) != "cwd" {
		t.Errorf("expected working directory root to win, got %q", body)
	}
}

func TestOpenContractSkipsDirectories(t *testing.T) {
	roots := testRoots(t)
	svc := NewStorageService(roots, nil, zap.NewNop())
	if err := os.MkdirAll(filepath.Join(roots[0].Dir, "private", "uploads", "contracts", "dir.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(roots[2].Dir, "uploads", "contracts", "dir.pdf"), "env")

	f, err := svc.OpenContract(context.Background(), "private/uploads/contracts/dir.pdf")
	if err != nil {
		t.Fatalf("OpenContract() error = %v", err)
	}
	f.Body.Close()
	if f.Origin != filepath.Join(roots[2].Dir, "uploads", "contracts", "dir.pdf") {
		t.Errorf("unexpected origin %q", f.Origin)
	}
}

func TestOpenContractMirrorFallback(t *testing.T) {
	mirror := &fakeMirror{objects: map[string][]byte{
		"private/uploads/contracts/remote.pdf": []byte("%PDF-remote"),
	}}
	svc := NewStorageService(testRoots(t), mirror, zap.NewNop())

	f, err := svc.OpenContract(context.Background(), "/private/uploads/contracts/remote.pdf")
	if err != nil {
		t.Fatalf("OpenContract() error = %v", err)
	}
	body, _ := io.ReadAll(f.Body)
	if string(body) != "%PDF-remote" || f.Origin != "mirror:private/uploads/contracts/remote.pdf" {
		t.Errorf("unexpected mirror result %q from %q", body, f.Origin)
	}

	_, err = svc.OpenContract(context.Background(), "private/uploads/contracts/absent.pdf")
	if !errors.Is(err, ErrStoredFileNotFound) {
		t.Errorf("expected ErrStoredFileNotFound, got %v", err)
	}

	mirror.calls = nil
	_, err = svc.OpenContract(context.Background(), "private/uploads/contracts/../x.pdf")
	if !errors.Is(err, ErrStoredFileNotFound) {
		t.Errorf("expected ErrStoredFileNotFound for traversal, got %v", err)
	}
	if len(mirror.calls) != 0 {
		t.Error("rejected pointer must not reach the mirror")
	}
}

func TestOpenContractNotFoundWithoutMirror(t *testing.T) {
	svc := NewStorageService(testRoots(t), nil, zap.NewNop())
	_, err := svc.OpenContract(context.Background(), "private/uploads/contracts/missing.pdf")
	if !errors.Is(err, ErrStoredFileNotFound) {
		t.Fatalf("expected ErrStoredFileNotFound, got %v", err)
	}
}
