// Package catalog is the read-only assistance-type catalog: type tags, the
// details each type accepts and the nature-of-donation tags.
package catalog

import "sort"

const (
	TypeEyewear    = "lunettes"
	TypeHearingAid = "appareils_auditifs"
	TypeEquipment  = "appareillage"
	TypeTransport  = "transport"
	TypeKafala     = "kafala"
)

// Nature-of-donation tags used on equipment assistance.
const (
	NatureDonation      = "don"
	NatureLoan          = "pret"
	NatureLoanFixedTerm = "pret_duree_determinee"
	NatureLoanTemporary = "pret_temporaire"
)

type Detail struct {
	ID    string
	Label string
}

type Type struct {
	Tag       string
	Label     string
	Equipment bool
	Details   []Detail
}

// Catalog is the lookup the lifecycle and allocator depend on.
type Catalog interface {
	Lookup(tag string) (Type, bool)
	// Coherent reports whether detailID belongs to typeTag. An empty detail
	// is always coherent with a known type.
	Coherent(typeTag, detailID string) bool
	Tags() []string
}

type Static struct {
	types map[string]Type
}

func NewStatic(types ...Type) *Static {
	s := &Static{types: make(map[string]Type, len(types))}
	for _, t := range types {
		s.types[t.Tag] = t
	}
	return s
}

// Default returns the catalog the unit ships with.
func Default() *Static {
	return NewStatic(
		Type{Tag: TypeEyewear, Label: "Lunettes", Details: []Detail{
			{ID: "lunettes_vision_loin", Label: "Vision de loin"},
			{ID: "lunettes_vision_pres", Label: "Vision de près"},
			{ID: "lunettes_progressives", Label: "Verres progressifs"},
		}},
		Type{Tag: TypeHearingAid, Label: "Appareils auditifs", Details: []Detail{
			{ID: "auditif_unilateral", Label: "Unilatéral"},
			{ID: "auditif_bilateral", Label: "Bilatéral"},
		}},
		Type{Tag: TypeEquipment, Label: "Appareillage orthopédique", Equipment: true, Details: []Detail{
			{ID: "fauteuil_roulant", Label: "Fauteuil roulant"},
			{ID: "bequilles", Label: "Béquilles"},
			{ID: "deambulateur", Label: "Déambulateur"},
			{ID: "lit_medicalise", Label: "Lit médicalisé"},
			{ID: "prothese", Label: "Prothèse"},
		}},
		Type{Tag: TypeTransport, Label: "Transport"},
		Type{Tag: TypeKafala, Label: "Kafala"},
	)
}

func (s *Static) Lookup(tag string) (Type, bool) {
	t, ok := s.types[tag]
	return t, ok
}

func (s *Static) Coherent(typeTag, detailID string) bool {
	t, ok := s.types[typeTag]
	if !ok {
		return false
	}
	if detailID == "" {
		return true
	}
	for _, d := range t.Details {
		if d.ID == detailID {
			return true
		}
	}
	return false
}

func (s *Static) Tags() []string {
	out := make([]string, 0, len(s.types))
	for tag := range s.types {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}
