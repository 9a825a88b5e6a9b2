package utils

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestGenerateStudyID(t *testing.T) {
	id1 := GenerateStudyID()
	id2 := GenerateStudyID()

	if !strings.HasPrefix(id1, "study-") {
		t.Errorf("GenerateStudyID should start with 'study-': %s", id1)
	}
	if id1 == id2 {
		t.Error("GenerateStudyID should return unique IDs")
	}
	// study-YYYYMMDD-HHMMSS-xxxxxxxx
	if len(id1) != len("study-20060102-150405-")+8 {
		t.Errorf("unexpected study ID length: %s", id1)
	}
}

func TestGenerateRequestID(t *testing.T) {
	id := GenerateRequestID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("GenerateRequestID should be a UUID: %s (%v)", id, err)
	}
}

func TestGenerateStudyIDConcurrent(t *testing.T) {
	const n = 200
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- GenerateStudyID()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}
