// Package codes generates item codes of the form MIS + 3 category chars + 4 digits.
package codes

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"inventory-backend/internal/models"

	"gorm.io/gorm"
)

const (
	Prefix   = "MIS"
	numWidth = 4
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrNoCategoryCode   = errors.New("category must have a code to generate item codes")
)

// NormalizeCat3 keeps letters and digits of a category code, upper-cased,
// cut or padded with X to three characters.
func NormalizeCat3(catCode string) string {
	var b strings.Builder
	for _, r := range catCode {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	s := b.String() + "XXX"
	return s[:3]
}

func Format(cat3 string, n int) string {
	return fmt.Sprintf("%s%s%0*d", Prefix, cat3, numWidth, n)
}

// NextForCategory returns the next free code for the category. With fillGaps
// the smallest unused number is taken, otherwise max+1.
func NextForCategory(ctx context.Context, db *gorm.DB, categoryID uint, fillGaps bool) (string, error) {
	var cat models.Category
	if err := db.WithContext(ctx).First(&cat, "id = ?", categoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrCategoryNotFound
		}
		return "", fmt.Errorf("load category %d: %w", categoryID, err)
	}
	if cat.Code == nil || strings.TrimSpace(*cat.Code) == "" {
		return "", ErrNoCategoryCode
	}

	cat3 := NormalizeCat3(*cat.Code)
	prefix := Prefix + cat3

	var existing []string
	err := db.WithContext(ctx).
		Model(&models.Item{}).
		Where("UPPER(code) LIKE ?", prefix+"%").
		Pluck("code", &existing).Error
	if err != nil {
		return "", fmt.Errorf("scan codes with prefix %s: %w", prefix, err)
	}

	return Format(cat3, pickNumber(prefix, existing, fillGaps)), nil
}

func pickNumber(prefix string, existing []string, fillGaps bool) int {
	pat := regexp.MustCompile(`^(?i)` + regexp.QuoteMeta(prefix) + `(\d+)$`)

	used := make(map[int]struct{}, len(existing))
	maxN := 0
	for _, c := range existing {
		m := pat.FindStringSubmatch(strings.TrimSpace(c))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		used[n] = struct{}{}
		if n > maxN {
			maxN = n
		}
	}

	if !fillGaps {
		return maxN + 1
	}
	n := 1
	for {
		if _, ok := used[n]; !ok {
			return n
		}
		n++
	}
}
