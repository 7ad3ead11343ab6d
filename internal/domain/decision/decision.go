// Package decision holds the closed set of review decisions a beneficiary can
// carry and the normalizer that maps every spelling ever stored for them onto
// that set.
package decision

import (
	"assistance-backend/pkg/domainerrors"
	"assistance-backend/pkg/textfold"
)

type State string

const (
	Unset               State = ""
	Accepted            State = "accepted"
	Pending             State = "pending"
	Refused             State = "refused"
	AdmittedPrimaryList State = "admitted_primary_list"
	AdmittedWaitingList State = "admitted_waiting_list"
)

var ErrInvalidDecision = domainerrors.New(domainerrors.CodeValidation, "invalid decision")

// All returns the canonical states in display order.
func All() []State {
	return []State{Accepted, Pending, Refused, AdmittedPrimaryList, AdmittedWaitingList}
}

func (s State) Valid() bool {
	switch s {
	case Accepted, Pending, Refused, AdmittedPrimaryList, AdmittedWaitingList:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }

// lookup is keyed by folded spellings. Keys must stay: rows written by every
// earlier schema still carry them.
var lookup = map[string]State{
	// canonical
	"accepted":              Accepted,
	"pending":               Pending,
	"refused":               Refused,
	"admitted_primary_list": AdmittedPrimaryList,
	"admitted_waiting_list": AdmittedWaitingList,

	// english synonyms
	"accept":                Accepted,
	"approved":              Accepted,
	"waiting":               Pending,
	"on hold":               Pending,
	"rejected":              Refused,
	"denied":                Refused,
	"admitted primary list": AdmittedPrimaryList,
	"primary list":          AdmittedPrimaryList,
	"admitted waiting list": AdmittedWaitingList,
	"waiting list":          AdmittedWaitingList,

	// french, first schema
	"accepte":    Accepted,
	"acceptee":   Accepted,
	"en attente": Pending,
	"en_attente": Pending,
	"attente":    Pending,
	"refuse":     Refused,
	"refusee":    Refused,
	"rejete":     Refused,

	// second schema: free text
	"admis liste principale":    AdmittedPrimaryList,
	"admis en liste principale": AdmittedPrimaryList,
	"admin a list principale":   AdmittedPrimaryList,
	"admin a liste principale":  AdmittedPrimaryList,
	"admis liste d'attente":     AdmittedWaitingList,
	"admis en liste d'attente":  AdmittedWaitingList,
	"admin a list d'attente":    AdmittedWaitingList,
	"admin a liste d'attente":   AdmittedWaitingList,
	"admin a list d attente":    AdmittedWaitingList,
	"admin a liste d attente":   AdmittedWaitingList,

	// third schema: slugs, underscore and hyphen
	"admin_a_list_principale": AdmittedPrimaryList,
	"admin-a-list-principale": AdmittedPrimaryList,
	"admis_liste_principale":  AdmittedPrimaryList,
	"admis-liste-principale":  AdmittedPrimaryList,
	"admin_a_list_attente":    AdmittedWaitingList,
	"admin-a-list-attente":    AdmittedWaitingList,
	"admin_a_list_d_attente":  AdmittedWaitingList,
	"admin-a-list-d-attente":  AdmittedWaitingList,
	"admis_liste_attente":     AdmittedWaitingList,
	"admis-liste-attente":     AdmittedWaitingList,
	"admis_liste_d_attente":   AdmittedWaitingList,
	"admis-liste-d-attente":   AdmittedWaitingList,
}

// Normalize maps raw onto a canonical State. Blank input yields Unset and no
// error; anything not in the table yields ErrInvalidDecision.
func Normalize(raw string) (State, error) {
	key := fold(raw)
	if key == "" {
		return Unset, nil
	}
	if s, ok := lookup[key]; ok {
		return s, nil
	}
	return Unset, ErrInvalidDecision
}

// MigrateLegacy is the one-shot rewrite applied to stored values. changed is
// false when raw is already canonical or blank; ok is false for spellings the
// table does not know.
func MigrateLegacy(raw string) (s State, changed bool, ok bool) {
	s, err := Normalize(raw)
	if err != nil {
		return Unset, false, false
	}
	return s, string(s) != raw, true
}

func fold(raw string) string { return textfold.Fold(raw) }
