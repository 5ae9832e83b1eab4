package utils

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/castrometro/sgm-contabilidad/config"
	"github.com/shopspring/decimal"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u",
	"à", "a", "è", "e", "ì", "i", "ò", "o", "ù", "u",
	"ä", "a", "ë", "e", "ï", "i", "ö", "o", "ü", "u",
	"â", "a", "ê", "e", "î", "i", "ô", "o", "û", "u",
	"ñ", "n", "ç", "c",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u",
	"Ñ", "n", "Ü", "u",
)

// NormalizeText folds a cell or header value for fuzzy comparison:
// lowercase, accents stripped, everything except letters/digits dropped.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = accentReplacer.Replace(s)
	return nonAlnum.ReplaceAllString(s, "")
}

// returns slice removing duplicate elements
func UniqueSlice[T comparable](slice []T) []T {
	inResult := make(map[T]bool)
	var result []T
	for _, elm := range slice {
		if _, ok := inResult[elm]; !ok {
			inResult[elm] = true
			result = append(result, elm)
		}
	}
	return result
}

var thousandsDots = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)
var thousandsCommas = regexp.MustCompile(`^\d{1,3}(,\d{3})+$`)

// ParseDecimal parses ledger amounts in the formats client spreadsheets
// actually contain: "1.234.567,89", "1,234,567.89", "1234.56", "(1.234,56)"
// and blank cells. Blank parses as zero, not as an error.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "$", ""))
	s = strings.ReplaceAll(s, " ", "")
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimPrefix(s, "-")
	}

	hasDot := strings.Contains(s, ".")
	hasComma := strings.Contains(s, ",")
	switch {
	case hasDot && hasComma:
		// the rightmost separator is the decimal mark
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		if thousandsCommas.MatchString(s) {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case hasDot:
		if thousandsDots.MatchString(s) {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// PeriodLock serializes ingestion per (client, period) across instances.
// Returns a release func; the caller must hold the lock for the whole run.
// Nil-safe: when redis is not connected the lock degrades to a no-op (the
// MySQL advisory lock taken inside the posting transaction still applies).
func PeriodLock(ctx context.Context, clientId int, periodId int, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}
	lockKey := lockKeyForPeriod(clientId, periodId)
	lock, err := locker.Obtain(ctx, lockKey, 10*time.Minute, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "could not obtain period lock", lockKey, err)
		return nil, errors.New("another ingestion is running for this period")
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "error obtaining period lock", lockKey, err)
		return nil, err
	}
	return func() {
		_ = lock.Release(ctx)
	}, nil
}

func lockKeyForPeriod(clientId int, periodId int) string {
	return fmt.Sprintf("ingesta:%d:%d", clientId, periodId)
}
