package content

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/MRamiBalles/heatcity/internal/domain/ids"
)

// Set is a complete bundle of content as loaded from a store.
type Set struct {
	Powers         []Power
	Expressions    []Expression
	Acquisitions   []Acquisition
	Storylets      []Storylet
	NemesisActions []NemesisAction
}

// IntegrityError lists every broken reference found in a content set.
// It is fatal: the simulation must not start on inconsistent content.
type IntegrityError struct {
	Problems []string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("content integrity: %d problem(s): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// CheckIntegrity validates identifiers, references and enum values of a set.
func CheckIntegrity(s Set) error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	powers := make(map[ids.PowerID]Power, len(s.Powers))
	for _, p := range s.Powers {
		if p.ID == "" {
			add("power with empty id")
			continue
		}
		if _, dup := powers[p.ID]; dup {
			add("duplicate power %s", p.ID)
		}
		powers[p.ID] = p
	}

	expressions := make(map[ids.ExpressionID]Expression, len(s.Expressions))
	for _, e := range s.Expressions {
		if e.ID == "" {
			add("expression with empty id")
			continue
		}
		if _, dup := expressions[e.ID]; dup {
			add("duplicate expression %s", e.ID)
		}
		expressions[e.ID] = e
		if _, ok := powers[e.PowerID]; !ok {
			add("expression %s references unknown power %s", e.ID, e.PowerID)
		}
		for _, c := range e.Costs {
			if !knownCost(c.Type) {
				add("expression %s has unknown cost type %q", e.ID, c.Type)
			}
			if c.Value < 0 {
				add("expression %s has negative %s cost", e.ID, c.Type)
			}
			if c.RiskChance < 0 || c.RiskChance > 100 {
				add("expression %s has risk chance %d outside 0..100", e.ID, c.RiskChance)
			}
		}
		for _, sig := range e.Signatures {
			if !knownSignature(sig.Type) {
				add("expression %s has unknown signature type %q", e.ID, sig.Type)
			}
		}
	}

	acquisitions := make(map[ids.AcquisitionID]Acquisition, len(s.Acquisitions))
	for _, a := range s.Acquisitions {
		if _, dup := acquisitions[a.ID]; dup {
			add("duplicate acquisition %s", a.ID)
		}
		acquisitions[a.ID] = a
		if _, ok := powers[a.PowerID]; !ok {
			add("acquisition %s references unknown power %s", a.ID, a.PowerID)
		}
		for _, req := range a.Requires {
			if _, ok := powers[req]; !ok {
				add("acquisition %s requires unknown power %s", a.ID, req)
			}
		}
	}

	for _, p := range s.Powers {
		for _, eid := range p.Expressions {
			e, ok := expressions[eid]
			if !ok {
				add("power %s lists unknown expression %s", p.ID, eid)
				continue
			}
			if e.PowerID != p.ID {
				add("power %s lists expression %s owned by %s", p.ID, eid, e.PowerID)
			}
		}
		for _, aid := range p.Acquisitions {
			a, ok := acquisitions[aid]
			if !ok {
				add("power %s lists unknown acquisition %s", p.ID, aid)
				continue
			}
			if a.PowerID != p.ID {
				add("power %s lists acquisition %s granting %s", p.ID, aid, a.PowerID)
			}
		}
	}

	storylets := make(map[ids.StoryletID]bool, len(s.Storylets))
	for _, st := range s.Storylets {
		if storylets[st.ID] {
			add("duplicate storylet %s", st.ID)
		}
		storylets[st.ID] = true
		for axis := range st.Preconditions.MinPressure {
			if !knownAxis(axis) {
				add("storylet %s gates on unknown axis %q", st.ID, axis)
			}
		}
		for axis := range st.Effects.Pressure {
			if !knownAxis(axis) {
				add("storylet %s shifts unknown axis %q", st.ID, axis)
			}
		}
	}

	actions := make(map[string]bool, len(s.NemesisActions))
	for _, a := range s.NemesisActions {
		if actions[a.ID] {
			add("duplicate nemesis action %s", a.ID)
		}
		actions[a.ID] = true
		if a.Focus != "" && !knownSignature(a.Focus) {
			add("nemesis action %s focuses unknown signature %q", a.ID, a.Focus)
		}
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return &IntegrityError{Problems: problems}
	}
	return nil
}

func knownCost(t CostType) bool {
	for _, c := range AllCostTypes {
		if c == t {
			return true
		}
	}
	return false
}

func knownSignature(t SignatureType) bool {
	for _, s := range AllSignatureTypes {
		if s == t {
			return true
		}
	}
	return false
}

func knownAxis(a Axis) bool {
	for _, x := range AllAxes {
		if x == a {
			return true
		}
	}
	return false
}

// Catalog is an in-memory Repository built from a validated Set.
type Catalog struct {
	powers         map[ids.PowerID]Power
	expressions    map[ids.ExpressionID]Expression
	acquisitions   map[ids.AcquisitionID]Acquisition
	storylets      []Storylet
	nemesisActions []NemesisAction
}

// NewCatalog validates the set and indexes it.
func NewCatalog(s Set) (*Catalog, error) {
	if err := CheckIntegrity(s); err != nil {
		return nil, err
	}
	c := &Catalog{
		powers:       make(map[ids.PowerID]Power, len(s.Powers)),
		expressions:  make(map[ids.ExpressionID]Expression, len(s.Expressions)),
		acquisitions: make(map[ids.AcquisitionID]Acquisition, len(s.Acquisitions)),
	}
	for _, p := range s.Powers {
		c.powers[p.ID] = p
	}
	for _, e := range s.Expressions {
		c.expressions[e.ID] = e
	}
	for _, a := range s.Acquisitions {
		c.acquisitions[a.ID] = a
	}
	c.storylets = append([]Storylet(nil), s.Storylets...)
	sort.Slice(c.storylets, func(i, j int) bool { return c.storylets[i].ID < c.storylets[j].ID })
	c.nemesisActions = append([]NemesisAction(nil), s.NemesisActions...)
	sort.Slice(c.nemesisActions, func(i, j int) bool { return c.nemesisActions[i].ID < c.nemesisActions[j].ID })
	return c, nil
}

func (c *Catalog) GetPower(id ids.PowerID) (Power, bool) {
	p, ok := c.powers[id]
	return p, ok
}

func (c *Catalog) GetExpression(id ids.ExpressionID) (Expression, bool) {
	e, ok := c.expressions[id]
	return e, ok
}

func (c *Catalog) GetAcquisition(id ids.AcquisitionID) (Acquisition, bool) {
	a, ok := c.acquisitions[id]
	return a, ok
}

// Storylets returns storylets ordered by ID.
func (c *Catalog) Storylets() []Storylet {
	return slices.Clone(c.storylets)
}

// NemesisActions returns the action catalog ordered by ID.
func (c *Catalog) NemesisActions() []NemesisAction {
	return slices.Clone(c.nemesisActions)
}
