package models

import (
	"fmt"
	"strings"
)

// TemplateSetNotFoundError means the client has no classification set that
// can be mapped to the requested statement kind. Fatal for that kind only;
// other kinds still assemble.
type TemplateSetNotFoundError struct {
	ClientId int
	Kind     StatementKind
}

func (e *TemplateSetNotFoundError) Error() string {
	return fmt.Sprintf("no classification set matches statement kind %s for client %d", e.Kind, e.ClientId)
}

var canonicalSetNames = map[StatementKind][]string{
	StatementKindESF: {"estado de situacion financiera", "esf", "balance general"},
	StatementKindERI: {"estado de resultados integrales", "estado de resultados", "eri", "estado del resultado integral"},
	StatementKindECP: {"estado de cambios en el patrimonio", "ecp", "estado de cambios en el patrimonio neto"},
}

var setKindKeywords = map[StatementKind][][]string{
	StatementKindESF: {{"situacion"}},
	StatementKindERI: {{"resultado"}},
	StatementKindECP: {{"cambio", "patrimon"}},
}

func foldSetName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n")
	return replacer.Replace(s)
}

// ResolveTemplateSet picks the client's classification set whose name best
// matches a statement kind. Fallback chain: exact canonical name match,
// substring containing the kind's short code, then kind-specific keywords.
func ResolveTemplateSet(sets []*ClassificationSet, clientId int, kind StatementKind) (*ClassificationSet, error) {
	for _, canonical := range canonicalSetNames[kind] {
		for _, set := range sets {
			if foldSetName(set.Name) == canonical {
				return set, nil
			}
		}
	}

	shortCode := strings.ToLower(string(kind))
	for _, set := range sets {
		if strings.Contains(foldSetName(set.Name), shortCode) {
			return set, nil
		}
	}

	for _, keywords := range setKindKeywords[kind] {
		for _, set := range sets {
			name := foldSetName(set.Name)
			all := true
			for _, kw := range keywords {
				if !strings.Contains(name, kw) {
					all = false
					break
				}
			}
			if all {
				return set, nil
			}
		}
	}

	return nil, &TemplateSetNotFoundError{ClientId: clientId, Kind: kind}
}
