package modelstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kirillkom/docclass/internal/core/domain"
	"github.com/kirillkom/docclass/internal/core/ports"
	"github.com/kirillkom/docclass/internal/infrastructure/ml/forest"
	"github.com/kirillkom/docclass/internal/infrastructure/ml/tfidf"
)

const (
	VectorizerFile = "vectorizer.json"
	ClassifierFile = "classifier_model.json"

	vectorizerKind = "tfidf_vectorizer"
	classifierKind = "random_forest_classifier"
	formatVersion  = 1

	maxArtifactBytes = 256 << 20
)

// envelope makes each artifact self-describing: a reader can tell a
// truncated, foreign or tampered file from a valid one before decoding it.
type envelope struct {
	Kind          string          `json:"kind"`
	FormatVersion int             `json:"format_version"`
	Checksum      string          `json:"sha256"`
	Payload       json.RawMessage `json:"payload"`
}

type classifierPayload struct {
	VectorizerFingerprint string       `json:"vectorizer_fingerprint"`
	Dimension             int          `json:"dimension"`
	Classes               []string     `json:"classes"`
	Forest                forest.State `json:"forest"`
}

func checksum(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func writeArtifact(ctx context.Context, storage ports.ArtifactStorage, key, kind string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", kind, err)
	}
	data, err := json.Marshal(envelope{
		Kind:          kind,
		FormatVersion: formatVersion,
		Checksum:      checksum(raw),
		Payload:       raw,
	})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", kind, err)
	}
	if err := storage.Save(ctx, key, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func readArtifact(ctx context.Context, storage ports.ArtifactStorage, key, kind string, into any) error {
	rc, err := storage.Open(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxArtifactBytes+1))
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if len(data) > maxArtifactBytes {
		return corrupt(key, errors.New("artifact exceeds size limit"))
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return corrupt(key, err)
	}
	switch {
	case env.Kind != kind:
		return corrupt(key, fmt.Errorf("kind %q, want %q", env.Kind, kind))
	case env.FormatVersion != formatVersion:
		return corrupt(key, fmt.Errorf("format version %d, want %d", env.FormatVersion, formatVersion))
	case env.Checksum != checksum(env.Payload):
		return corrupt(key, errors.New("checksum mismatch"))
	}
	if err := json.Unmarshal(env.Payload, into); err != nil {
		return corrupt(key, err)
	}
	return nil
}

func corrupt(key string, err error) error {
	return domain.WrapError(domain.ErrCorruptArtifact, key, err)
}

func savePair(ctx context.Context, storage ports.ArtifactStorage, pair *Pair) error {
	if err := writeArtifact(ctx, storage, VectorizerFile, vectorizerKind, pair.Vectorizer.State()); err != nil {
		return err
	}
	return writeArtifact(ctx, storage, ClassifierFile, classifierKind, classifierPayload{
		VectorizerFingerprint: pair.Vectorizer.Fingerprint(),
		Dimension:             pair.Vectorizer.Dimension(),
		Classes:               domain.CategoryNames(),
		Forest:                pair.Classifier.State(),
	})
}

func loadPair(ctx context.Context, storage ports.ArtifactStorage) (*Pair, error) {
	var vstate tfidf.State
	if err := readArtifact(ctx, storage, VectorizerFile, vectorizerKind, &vstate); err != nil {
		return nil, err
	}
	vectorizer, err := tfidf.FromState(vstate)
	if err != nil {
		return nil, corrupt(VectorizerFile, err)
	}

	var cp classifierPayload
	if err := readArtifact(ctx, storage, ClassifierFile, classifierKind, &cp); err != nil {
		return nil, err
	}
	if err := domain.CheckClassOrder(cp.Classes); err != nil {
		return nil, corrupt(ClassifierFile, err)
	}
	if cp.VectorizerFingerprint != vectorizer.Fingerprint() || cp.Dimension != vectorizer.Dimension() {
		return nil, corrupt(ClassifierFile, errors.New("classifier was fitted against a different vectorizer"))
	}
	classifier, err := forest.FromState(cp.Forest)
	if err != nil {
		return nil, corrupt(ClassifierFile, err)
	}
	if classifier.NumClasses() != domain.NumCategories || classifier.NumFeatures() != vectorizer.Dimension() {
		return nil, corrupt(ClassifierFile, errors.New("classifier shape does not match the category set"))
	}
	return &Pair{Vectorizer: vectorizer, Classifier: classifier, Source: SourceLoaded}, nil
}
