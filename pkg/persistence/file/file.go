// Package file provides a file-based persistence implementation, one JSON
// document per record. Suitable for development and single-node setups.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cascadehq/cascade/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface on the file
// system under a root directory.
type Persistence struct {
	root           string
	definitionRepo *DefinitionRepository
	instanceRepo   *InstanceRepository
	taskRepo       *TaskRepository
	approvalRepo   *ApprovalRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// Accepts both a plain path and a file:// URL.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	// One lock shared by instance writers keeps the version check atomic
	// within this process.
	instanceMu := &sync.Mutex{}

	return &Persistence{
		root:           cleanRoot,
		definitionRepo: &DefinitionRepository{root: cleanRoot},
		instanceRepo:   &InstanceRepository{root: cleanRoot, mu: instanceMu},
		taskRepo:       &TaskRepository{root: cleanRoot},
		approvalRepo:   &ApprovalRepository{root: cleanRoot},
	}
}

func (fp *Persistence) DefinitionRepository() persistence.DefinitionRepository {
	return fp.definitionRepo
}

func (fp *Persistence) InstanceRepository() persistence.InstanceRepository {
	return fp.instanceRepo
}

func (fp *Persistence) TaskRepository() persistence.TaskRepository {
	return fp.taskRepo
}

func (fp *Persistence) ApprovalRepository() persistence.ApprovalRepository {
	return fp.approvalRepo
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. Nothing to clean up for files.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// readDocument loads a JSON record into out. Returns os.ErrNotExist when
// the record is missing.
func readDocument(root, collection, id string, out any) error {
	filePath := filepath.Clean(path.Join(root, collection, id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s %s: %w", collection, id, err)
	}

	return nil
}

// writeDocument stores a JSON record, creating the collection directory on
// first use.
func writeDocument(root, collection, id string, record any) error {
	dir := path.Join(root, collection)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", collection, err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", collection, id, err)
	}

	return os.WriteFile(path.Join(dir, id+".json"), data, 0600)
}

// listIDs returns the record IDs present in a collection. A missing
// collection directory means no records yet.
func listIDs(root, collection string) ([]string, error) {
	entries, err := os.ReadDir(path.Join(root, collection))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	return ids, nil
}
