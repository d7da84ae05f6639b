// Package scan holds the interface contracts for the image scanning and
// food analysis endpoints. Detection and product data are mocked until the
// computer-vision and OpenFoodFacts phases land; only request validation and
// the preference-aware verdict shape are real.
package scan

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eatrite/backend/internal/app/domain/preference"
	"github.com/eatrite/backend/internal/errors"
)

// MaxImageBytes caps scan uploads at 10 MiB.
const MaxImageBytes = 10 << 20

// DetectedItem is a food item or barcode located in a scanned image.
type DetectedItem struct {
	ItemType    string         `json:"item_type"`
	Name        string         `json:"name,omitempty"`
	Barcode     string         `json:"barcode,omitempty"`
	Confidence  float64        `json:"confidence"`
	BoundingBox map[string]int `json:"bounding_box,omitempty"`
}

// Result is the outcome of an image scan.
type Result struct {
	ScanID           string         `json:"scan_id"`
	DetectedItems    []DetectedItem `json:"detected_items"`
	ProcessingTimeMS float64        `json:"processing_time_ms"`
	Timestamp        time.Time      `json:"timestamp"`
	Status           string         `json:"status"`
	Message          string         `json:"message,omitempty"`
}

// AnalyzeRequest identifies a product by barcode or name.
type AnalyzeRequest struct {
	Barcode     string `json:"barcode,omitempty"`
	ProductName string `json:"product_name,omitempty"`
}

// AllergenWarning flags an allergen matching the user's profile.
type AllergenWarning struct {
	Allergen string `json:"allergen"`
	Severity string `json:"severity"`
	Source   string `json:"source"`
}

// NutritionInfo carries per-serving nutrition facts.
type NutritionInfo struct {
	Calories      float64 `json:"calories,omitempty"`
	Protein       float64 `json:"protein,omitempty"`
	Carbohydrates float64 `json:"carbohydrates,omitempty"`
	Fat           float64 `json:"fat,omitempty"`
	Fiber         float64 `json:"fiber,omitempty"`
	Sugar         float64 `json:"sugar,omitempty"`
	Sodium        float64 `json:"sodium,omitempty"`
}

// Analysis is a safety verdict for a product against the user's preferences.
type Analysis struct {
	AnalysisID       string            `json:"analysis_id"`
	ProductName      string            `json:"product_name"`
	Barcode          string            `json:"barcode,omitempty"`
	IsSafe           bool              `json:"is_safe"`
	SafetyScore      float64           `json:"safety_score"`
	AllergenWarnings []AllergenWarning `json:"allergen_warnings"`
	DietaryConflicts []string          `json:"dietary_conflicts"`
	NutritionInfo    *NutritionInfo    `json:"nutrition_info,omitempty"`
	Ingredients      []string          `json:"ingredients"`
	Recommendations  []string          `json:"recommendations"`
	Timestamp        time.Time         `json:"timestamp"`
	Status           string            `json:"status"`
	Message          string            `json:"message,omitempty"`
}

// HistoryPage is the placeholder scan history response.
type HistoryPage struct {
	Message string        `json:"message"`
	Scans   []interface{} `json:"scans"`
	Total   int           `json:"total"`
	Limit   int           `json:"limit"`
	Offset  int           `json:"offset"`
}

// PreferenceReader supplies the caller's stored preferences for
// personalized verdicts.
type PreferenceReader interface {
	Get(ctx context.Context, userID string) (preference.Preferences, error)
}

// Service implements the mock scan/analyze contracts.
type Service struct {
	preferences PreferenceReader
}

// New creates a scan service. preferences may be nil; analysis then skips
// personalization.
func New(preferences PreferenceReader) *Service {
	return &Service{preferences: preferences}
}

// ScanImage validates the upload and returns mock detections.
func (s *Service) ScanImage(contentType string, size int64) (Result, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return Result{}, errors.InvalidInput("Invalid file type. Please upload an image file.")
	}
	if size > MaxImageBytes {
		return Result{}, errors.PayloadTooLarge("File too large. Maximum size is 10 MB.")
	}

	return Result{
		ScanID: uuid.NewString(),
		DetectedItems: []DetectedItem{
			{
				ItemType:    "barcode",
				Name:        "Product Barcode",
				Barcode:     "012345678905",
				Confidence:  0.95,
				BoundingBox: map[string]int{"x": 100, "y": 150, "width": 200, "height": 80},
			},
			{
				ItemType:    "food",
				Name:        "Apple",
				Confidence:  0.87,
				BoundingBox: map[string]int{"x": 50, "y": 50, "width": 150, "height": 150},
			},
		},
		ProcessingTimeMS: 245.3,
		Timestamp:        time.Now().UTC(),
		Status:           "success",
		Message:          "Mock scan complete. Computer vision integration pending.",
	}, nil
}

// Analyze produces a mock safety verdict for the identified product,
// personalized with the caller's stored preferences when available.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest, userID string) (Analysis, error) {
	if req.Barcode == "" && req.ProductName == "" {
		return Analysis{}, errors.InvalidInput("Either barcode or product_name must be provided.")
	}

	productName := req.ProductName
	if productName == "" {
		productName = "Product " + req.Barcode
	}

	var allergies, restrictions []string
	if userID != "" && s.preferences != nil {
		if prefs, err := s.preferences.Get(ctx, userID); err == nil {
			allergies = prefs.Allergies
			restrictions = prefs.DietaryRestrictions
		}
	}

	// Mock product data: the ingredient list is fixed until the
	// OpenFoodFacts lookup is wired in.
	ingredients := []string{"wheat flour", "sugar", "peanut oil", "milk", "salt", "baking powder"}

	warnings := make([]AllergenWarning, 0)
	if containsFold(allergies, "peanuts") {
		warnings = append(warnings, AllergenWarning{
			Allergen: "peanuts",
			Severity: "high",
			Source:   "Contains peanut oil in ingredients",
		})
	}

	conflicts := make([]string, 0)
	if containsFold(restrictions, "vegan") {
		conflicts = append(conflicts, "Contains milk (not suitable for vegan diet)")
	}

	isSafe := len(warnings) == 0 && len(conflicts) == 0
	score := 85.0
	if !isSafe {
		score = 35.0
	}

	recommendations := make([]string, 0, 2)
	if isSafe {
		recommendations = append(recommendations,
			"This product appears safe based on your preferences",
			"Moderate consumption recommended due to sugar content")
	} else {
		recommendations = append(recommendations,
			"This product contains allergens or conflicts matching your profile",
			"Consider alternative products")
	}

	return Analysis{
		AnalysisID:       uuid.NewString(),
		ProductName:      productName,
		Barcode:          req.Barcode,
		IsSafe:           isSafe,
		SafetyScore:      score,
		AllergenWarnings: warnings,
		DietaryConflicts: conflicts,
		NutritionInfo: &NutritionInfo{
			Calories:      250.0,
			Protein:       8.0,
			Carbohydrates: 30.0,
			Fat:           12.0,
			Fiber:         3.0,
			Sugar:         15.0,
			Sodium:        180.0,
		},
		Ingredients:     ingredients,
		Recommendations: recommendations,
		Timestamp:       time.Now().UTC(),
		Status:          "success",
		Message:         "Mock analysis complete. Food database integration pending.",
	}, nil
}

// History returns the placeholder scan history page.
func (s *Service) History(limit, offset int) HistoryPage {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return HistoryPage{
		Message: "Scan history is not recorded yet",
		Scans:   []interface{}{},
		Total:   0,
		Limit:   limit,
		Offset:  offset,
	}
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}
