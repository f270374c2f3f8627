package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"likeness.io/application/services/matchengine"
	service_types "likeness.io/application/services/types"
	"likeness.io/entities"
	biometric_types "likeness.io/infrastructure/biometric/types"
	"likeness.io/infrastructure/vectorindex"
)

type stubOracle struct {
	detections []biometric_types.FaceDetection
	err        error
}

func (s *stubOracle) DetectFaces(ctx context.Context, image []byte) ([]biometric_types.FaceDetection, error) {
	return s.detections, s.err
}

type fixedStore struct {
	identities map[string]entities.Identity
}

func (s *fixedStore) Get(ctx context.Context, id string) (*entities.Identity, error) {
	identity, ok := s.identities[id]
	if !ok {
		return nil, nil
	}
	return &identity, nil
}

func (s *fixedStore) Save(ctx context.Context, identity *entities.Identity) error { return nil }

func (s *fixedStore) SoftDelete(ctx context.Context, id string, reason string) error { return nil }

func (s *fixedStore) ListVerified(ctx context.Context) ([]entities.Identity, error) {
	return nil, nil
}

type recordSink struct {
	mutex   sync.Mutex
	records []entities.VerificationRecord
}

func (s *recordSink) Append(ctx context.Context, record entities.VerificationRecord) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *recordSink) last(t *testing.T) entities.VerificationRecord {
	t.Helper()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if len(s.records) == 0 {
		t.Fatal("no verification record appended")
	}
	return s.records[len(s.records)-1]
}

type stubCatalog struct {
	options []service_types.LicenseOption
	err     error
	delay   time.Duration
}

func (s *stubCatalog) GetLicenseOptions(ctx context.Context, identityID string) ([]service_types.LicenseOption, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.options, s.err
}

func detection(embedding []float32, confidence float64) biometric_types.FaceDetection {
	return biometric_types.FaceDetection{
		Embedding:  embedding,
		Confidence: confidence,
		Box:        biometric_types.BoundingBox{X: 10, Y: 20, Width: 96, Height: 96},
	}
}

func permissivePolicy() entities.UsagePolicy {
	return entities.UsagePolicy{AllowCommercialUse: true, AllowAITraining: true, AllowDeepfake: false}
}

// fixture wires a service around one verified identity sitting at axis 0.
func fixture(t *testing.T) (*VerificationService, *recordSink) {
	t.Helper()
	idx := vectorindex.NewMemoryIndex(4)
	if err := idx.Upsert(context.Background(), "identity-a", []float32{1, 0, 0, 0}); err != nil {
		t.Fatalf("seeding index failed: %v", err)
	}

	sink := &recordSink{}
	service := &VerificationService{
		Engine: matchengine.New(idx, 5),
		Identities: &fixedStore{identities: map[string]entities.Identity{
			"identity-a": {ID: "identity-a", DisplayName: "Ada", Status: entities.IdentityStatusVerified, Policy: permissivePolicy()},
		}},
		Records: sink,
		Config:  service_types.DefaultPipelineConfig(),
	}
	return service, sink
}

func TestVerify_StrongMatchReported(t *testing.T) {
	service, sink := fixture(t)
	// Similarity against identity-a is ~0.91.
	service.Oracle = &stubOracle{detections: []biometric_types.FaceDetection{
		detection([]float32{0.91, 0.41, 0, 0}, 0.9),
	}}

	result, err := service.Verify(context.Background(), VerifyPayload{RequesterID: "req-1", Image: []byte("img")})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(result.Matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(result.Matches))
	}
	match := result.Matches[0]
	if match.IdentityID != "identity-a" {
		t.Errorf("expected identity-a, got %s", match.IdentityID)
	}
	if match.Score < 0.89 || match.Score > 0.93 {
		t.Errorf("expected score near 0.91, got %f", match.Score)
	}
	if !match.Protected {
		t.Error("matched face must be flagged protected")
	}
	if match.Box.Width != 96 || match.Box.Height != 96 {
		t.Errorf("expected detection box carried through, got %+v", match.Box)
	}
	if !result.Protected {
		t.Error("result must be flagged protected when any face matches")
	}
	if result.Decision != entities.DecisionAllowed {
		t.Errorf("expected allowed, got %s", result.Decision)
	}

	record := sink.last(t)
	if record.MatchedIdentityID == nil || *record.MatchedIdentityID != "identity-a" {
		t.Errorf("record missing matched identity: %+v", record)
	}
	if record.Decision != entities.DecisionAllowed {
		t.Errorf("record decision %s", record.Decision)
	}
}

func TestVerify_WeakSimilarityIsNotFound(t *testing.T) {
	service, sink := fixture(t)
	// Similarity against identity-a is ~0.40.
	service.Oracle = &stubOracle{detections: []biometric_types.FaceDetection{
		detection([]float32{0.40, 0.92, 0, 0}, 0.9),
	}}

	result, err := service.Verify(context.Background(), VerifyPayload{RequesterID: "req-1", Image: []byte("img")})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if len(result.Matches) != 0 {
		t.Errorf("expected no matches, got %+v", result.Matches)
	}
	if result.Protected {
		t.Error("result must not be flagged protected when nothing matched")
	}
	if result.Decision != entities.DecisionNotFound {
		t.Errorf("expected not_found, got %s", result.Decision)
	}

	record := sink.last(t)
	if record.MatchedIdentityID != nil {
		t.Errorf("record should carry no matched identity, got %s", *record.MatchedIdentityID)
	}
}

func TestVerify_NoFaceDetected(t *testing.T) {
	service, _ := fixture(t)
	service.Oracle = &stubOracle{}

	_, err := service.Verify(context.Background(), VerifyPayload{RequesterID: "req-1", Image: []byte("blank")})
	if !errors.Is(err, service_types.ErrFaceNotDetected) {
		t.Errorf("expected ErrFaceNotDetected, got %v", err)
	}
}

func TestVerify_EngineOutageNeverReadsAsNotFound(t *testing.T) {
	service, sink := fixture(t)
	service.Oracle = &stubOracle{err: biometric_types.ErrEngineUnavailable}

	_, err := service.Verify(context.Background(), VerifyPayload{RequesterID: "req-1", Image: []byte("img")})
	if !errors.Is(err, service_types.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}

	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	if len(sink.records) != 0 {
		t.Errorf("no record should be written for a failed request, got %d", len(sink.records))
	}
}

func TestVerify_Deterministic(t *testing.T) {
	service, _ := fixture(t)
	service.Oracle = &stubOracle{detections: []biometric_types.FaceDetection{
		detection([]float32{0.91, 0.41, 0, 0}, 0.9),
	}}

	var first *VerifyResult
	for i := 0; i < 5; i++ {
		result, err := service.Verify(context.Background(), VerifyPayload{RequesterID: "req-1", Image: []byte("img")})
		if err != nil {
			t.Fatalf("run %d failed: %v", i, err)
		}
		if first == nil {
			first = result
			continue
		}
		if result.Matches[0].IdentityID != first.Matches[0].IdentityID {
			t.Errorf("run %d matched %s, first run matched %s", i, result.Matches[0].IdentityID, first.Matches[0].IdentityID)
		}
		if result.Matches[0].Score != first.Matches[0].Score {
			t.Errorf("run %d score %f differs from %f", i, result.Matches[0].Score, first.Matches[0].Score)
		}
	}
}

func TestVerify_MaxFacesCapped(t *testing.T) {
	service, _ := fixture(t)
	cfg := service.Config
	cfg.MaxFacesPerRequest = 2
	service.Config = cfg

	faces := make([]biometric_types.FaceDetection, 4)
	for i := range faces {
		faces[i] = detection([]float32{0, 0, 1, 0}, 0.9)
	}
	service.Oracle = &stubOracle{detections: faces}

	result, err := service.Verify(context.Background(), VerifyPayload{RequesterID: "req-1", Image: []byte("img")})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if result.FacesDetected != 4 {
		t.Errorf("expected FacesDetected to report all 4, got %d", result.FacesDetected)
	}
	// Orthogonal to identity-a, so no matches, but only 2 faces may have
	// been processed. The cap is observable through the face indexes.
	for _, match := range result.Matches {
		if match.FaceIndex >= 2 {
			t.Errorf("face %d processed beyond cap", match.FaceIndex)
		}
	}
}

func TestVerify_IndexInconsistencyRefusesAnswer(t *testing.T) {
	service, _ := fixture(t)
	service.Identities = &fixedStore{identities: map[string]entities.Identity{}}
	service.Oracle = &stubOracle{detections: []biometric_types.FaceDetection{
		detection([]float32{1, 0, 0, 0}, 0.9),
	}}

	_, err := service.Verify(context.Background(), VerifyPayload{RequesterID: "req-1", Image: []byte("img")})
	if !errors.Is(err, service_types.ErrIndexInconsistency) {
		t.Errorf("expected ErrIndexInconsistency, got %v", err)
	}
}

func TestVerify_BlockedCategory(t *testing.T) {
	service, sink := fixture(t)
	policy := permissivePolicy()
	policy.BlockedCategories = []string{"political_advertising"}
	service.Identities = &fixedStore{identities: map[string]entities.Identity{
		"identity-a": {ID: "identity-a", DisplayName: "Ada", Policy: policy},
	}}
	service.Oracle = &stubOracle{detections: []biometric_types.FaceDetection{
		detection([]float32{1, 0, 0, 0}, 0.9),
	}}

	result, err := service.Verify(context.Background(), VerifyPayload{
		RequesterID: "req-1",
		Image:       []byte("img"),
		Usage:       UsageContext{Intent: IntentCommercial, Category: "political_advertising"},
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if result.Decision != entities.DecisionBlocked {
		t.Errorf("expected blocked, got %s", result.Decision)
	}
	// The match itself is still reported, only annotated as not allowed.
	if len(result.Matches) != 1 || result.Matches[0].Allowed {
		t.Errorf("match must be reported and marked not allowed: %+v", result.Matches)
	}
	if !result.Matches[0].Protected || !result.Matches[0].LicenseRequired {
		t.Errorf("blocked match must stay protected and licensable: %+v", result.Matches[0])
	}
	if sink.last(t).Decision != entities.DecisionBlocked {
		t.Errorf("record decision %s", sink.last(t).Decision)
	}
}

func TestVerify_DeepfakeIntentBlockedByDefault(t *testing.T) {
	service, _ := fixture(t)
	service.Oracle = &stubOracle{detections: []biometric_types.FaceDetection{
		detection([]float32{1, 0, 0, 0}, 0.9),
	}}

	result, err := service.Verify(context.Background(), VerifyPayload{
		RequesterID: "req-1",
		Image:       []byte("img"),
		Usage:       UsageContext{Intent: IntentDeepfake},
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if result.Decision != entities.DecisionBlocked {
		t.Errorf("expected blocked, got %s", result.Decision)
	}
}

func TestVerify_LicenseOptionsAttached(t *testing.T) {
	service, _ := fixture(t)
	policy := permissivePolicy()
	policy.AllowCommercialUse = false
	service.Identities = &fixedStore{identities: map[string]entities.Identity{
		"identity-a": {ID: "identity-a", DisplayName: "Ada", Policy: policy},
	}}
	service.Licenses = &stubCatalog{options: []service_types.LicenseOption{
		{LicenseType: "single_campaign", Fee: 1500, Currency: "USD", TermDays: 90},
	}}
	service.Oracle = &stubOracle{detections: []biometric_types.FaceDetection{
		detection([]float32{1, 0, 0, 0}, 0.9),
	}}

	result, err := service.Verify(context.Background(), VerifyPayload{
		RequesterID: "req-1",
		Image:       []byte("img"),
		Usage:       UsageContext{Intent: IntentCommercial},
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	match := result.Matches[0]
	if match.Allowed {
		t.Error("commercial use without blanket permission must not be allowed as declared")
	}
	if !match.LicenseRequired {
		t.Error("expected licenseRequired for commercial use without blanket permission")
	}
	if result.Decision != entities.DecisionBlocked {
		t.Errorf("expected blocked, got %s", result.Decision)
	}
	// Options still come back so the caller can clear the block by licensing.
	if len(match.LicenseOptions) != 1 || match.LicenseOptions[0].LicenseType != "single_campaign" {
		t.Errorf("expected license options attached, got %+v", match.LicenseOptions)
	}
}

func TestVerify_SlowMarketplaceOmitsOptions(t *testing.T) {
	service, _ := fixture(t)
	policy := permissivePolicy()
	policy.AllowCommercialUse = false
	service.Identities = &fixedStore{identities: map[string]entities.Identity{
		"identity-a": {ID: "identity-a", DisplayName: "Ada", Policy: policy},
	}}
	cfg := service.Config
	cfg.LicenseLookupTimeout = 20 * time.Millisecond
	service.Config = cfg
	service.Licenses = &stubCatalog{delay: 200 * time.Millisecond}
	service.Oracle = &stubOracle{detections: []biometric_types.FaceDetection{
		detection([]float32{1, 0, 0, 0}, 0.9),
	}}

	result, err := service.Verify(context.Background(), VerifyPayload{
		RequesterID: "req-1",
		Image:       []byte("img"),
		Usage:       UsageContext{Intent: IntentCommercial},
	})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	match := result.Matches[0]
	if !match.LicenseRequired {
		t.Error("licenseRequired must survive a failed lookup")
	}
	if len(match.LicenseOptions) != 0 {
		t.Errorf("expected options omitted on timeout, got %+v", match.LicenseOptions)
	}
}

func TestEvaluatePolicy(t *testing.T) {
	tests := []struct {
		name            string
		policy          entities.UsagePolicy
		usage           UsageContext
		allowed         bool
		licenseRequired bool
	}{
		{
			name:    "open policy allows editorial",
			policy:  entities.UsagePolicy{AllowCommercialUse: true},
			usage:   UsageContext{Intent: "editorial"},
			allowed: true,
		},
		{
			name:            "commercial without blanket permission needs license",
			policy:          entities.UsagePolicy{},
			usage:           UsageContext{Intent: IntentCommercial},
			allowed:         false,
			licenseRequired: true,
		},
		{
			name:    "ai training blocked unless opted in",
			policy:  entities.UsagePolicy{},
			usage:   UsageContext{Intent: IntentAITraining},
			allowed: false,
		},
		{
			name:    "ai training allowed when opted in",
			policy:  entities.UsagePolicy{AllowAITraining: true},
			usage:   UsageContext{Intent: IntentAITraining},
			allowed: true,
		},
		{
			name:            "blocked brand",
			policy:          entities.UsagePolicy{AllowCommercialUse: true, BlockedBrands: []string{"acme"}},
			usage:           UsageContext{Intent: IntentCommercial, Brand: "acme"},
			allowed:         false,
			licenseRequired: true,
		},
		{
			name:            "blocked region",
			policy:          entities.UsagePolicy{AllowCommercialUse: true, BlockedRegions: []string{"XX"}},
			usage:           UsageContext{Intent: IntentCommercial, Region: "XX"},
			allowed:         false,
			licenseRequired: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			allowed, reason, licenseRequired := evaluatePolicy(testCase.policy, testCase.usage)
			if allowed != testCase.allowed {
				t.Errorf("allowed = %v, want %v (reason %q)", allowed, testCase.allowed, reason)
			}
			if licenseRequired != testCase.licenseRequired {
				t.Errorf("licenseRequired = %v, want %v", licenseRequired, testCase.licenseRequired)
			}
			if !allowed && reason == "" {
				t.Error("blocked usage must carry a reason")
			}
		})
	}
}
