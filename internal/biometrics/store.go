package biometrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/RyanBlaney/latency-benchmark-common/logging"

	"github.com/voxmaster/voice-engine/pkg/audio/common"
)

// Store holds enrolled signatures. Reads are concurrent; creation and
// deletion serialize on the write lock. The store owns its instances
// exclusively: Save deep-copies on the way in and Get/List deep-copy on the
// way out, so Delete can scrub vectors without racing an in-flight match.
// With a snapshot path configured the store persists derived vectors as JSON
// across restarts; raw audio is never part of the snapshot because it never
// reaches this layer.
type Store struct {
	mu           sync.RWMutex
	signatures   map[string]*VoiceSignature
	snapshotPath string
	logger       logging.Logger
}

// NewStore creates a signature store. An empty snapshotPath keeps the store
// memory-only; otherwise an existing snapshot is loaded eagerly.
func NewStore(snapshotPath string, logger logging.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	s := &Store{
		signatures:   make(map[string]*VoiceSignature),
		snapshotPath: snapshotPath,
		logger:       logger,
	}
	if snapshotPath != "" {
		if err := s.load(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Save stores a signature and synchronously persists the snapshot.
func (s *Store) Save(sig *VoiceSignature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.signatures[sig.ID] = sig.clone()
	if err := s.persistLocked(); err != nil {
		delete(s.signatures, sig.ID)
		return err
	}

	s.logger.Info("Signature stored", logging.Fields{
		"signature_id": sig.ID,
		"name":         sig.Name,
		"quality":      sig.QualityScore,
	})
	return nil
}

// Get returns a copy of the signature with the given id.
func (s *Store) Get(id string) (*VoiceSignature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sig, ok := s.signatures[id]
	if !ok {
		return nil, common.NewEngineError(common.ErrCodeSignatureNotFound,
			fmt.Sprintf("signature %s not found", id), nil)
	}
	return sig.clone(), nil
}

// List returns copies of all signatures ordered by creation time.
func (s *Store) List() []*VoiceSignature {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*VoiceSignature, 0, len(s.signatures))
	for _, sig := range s.signatures {
		out = append(out, sig.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Delete removes a signature irreversibly. The store's embedding vectors are
// zeroed and the snapshot is rewritten before Delete returns, so a completed
// call guarantees no subsequent probe can match the identity. Copies handed
// out earlier are untouched; they are already past their read.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig, ok := s.signatures[id]
	if !ok {
		return common.NewEngineError(common.ErrCodeSignatureNotFound,
			fmt.Sprintf("signature %s not found", id), nil)
	}

	delete(s.signatures, id)
	if err := s.persistLocked(); err != nil {
		s.signatures[id] = sig
		return err
	}

	for _, c := range sig.Centroids {
		zeroVector(c)
	}
	for i := range sig.Samples {
		zeroVector(sig.Samples[i].Vector)
	}
	sig.Status = StatusRevoked

	s.logger.Info("Signature deleted", logging.Fields{
		"signature_id": id,
	})
	return nil
}

// Count returns the number of stored signatures.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.signatures)
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.snapshotPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read signature snapshot: %w", err)
	}

	var sigs []*VoiceSignature
	if err := json.Unmarshal(data, &sigs); err != nil {
		return fmt.Errorf("failed to parse signature snapshot: %w", err)
	}
	for _, sig := range sigs {
		s.signatures[sig.ID] = sig
	}

	s.logger.Debug("Signature snapshot loaded", logging.Fields{
		"path":  s.snapshotPath,
		"count": len(sigs),
	})
	return nil
}

func (s *Store) persistLocked() error {
	if s.snapshotPath == "" {
		return nil
	}

	sigs := make([]*VoiceSignature, 0, len(s.signatures))
	for _, sig := range s.signatures {
		sigs = append(sigs, sig)
	}
	sort.Slice(sigs, func(i, j int) bool { return sigs[i].ID < sigs[j].ID })

	data, err := json.MarshalIndent(sigs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode signature snapshot: %w", err)
	}
	if err := os.WriteFile(s.snapshotPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write signature snapshot: %w", err)
	}
	return nil
}

func zeroVector(v []float64) {
	for i := range v {
		v[i] = 0
	}
}
