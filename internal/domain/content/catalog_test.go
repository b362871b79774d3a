package content

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MRamiBalles/heatcity/internal/domain/ids"
)

func TestDefaultCatalogIsConsistent(t *testing.T) {
	c, err := NewCatalog(DefaultSet())
	require.NoError(t, err)

	p, ok := c.GetPower(PowerKinetic)
	require.True(t, ok)
	assert.Len(t, p.Expressions, 2)

	e, ok := c.GetExpression(ExprShadowVeil)
	require.True(t, ok)
	assert.Equal(t, PowerShadow, e.PowerID)

	_, ok = c.GetExpression("exp.nope")
	assert.False(t, ok)

	storylets := c.Storylets()
	for i := 1; i < len(storylets); i++ {
		assert.Less(t, storylets[i-1].ID, storylets[i].ID)
	}
}

func TestCatalogListsAreCopies(t *testing.T) {
	// Setup
	c, err := NewCatalog(DefaultSet())
	require.NoError(t, err)
	storylets := c.Storylets()
	actions := c.NemesisActions()
	require.NotEmpty(t, storylets)
	require.NotEmpty(t, actions)
	firstStorylet, firstAction := storylets[0].ID, actions[0].ID

	// Act
	storylets[0].ID = "story.tampered"
	actions[0].ID = "nem.tampered"

	// Assert
	assert.Equal(t, firstStorylet, c.Storylets()[0].ID)
	assert.Equal(t, firstAction, c.NemesisActions()[0].ID)
}

func TestCatalogRejectsDanglingReferences(t *testing.T) {
	s := DefaultSet()
	s.Expressions = append(s.Expressions, Expression{ID: "exp.orphan", PowerID: "pwr.missing"})
	s.Acquisitions = append(s.Acquisitions, Acquisition{ID: "acq.bad", PowerID: PowerShadow, Requires: []ids.PowerID{"pwr.ghost"}})

	_, err := NewCatalog(s)
	require.Error(t, err)

	var integrity *IntegrityError
	require.True(t, errors.As(err, &integrity))
	assert.Contains(t, integrity.Problems, "expression exp.orphan references unknown power pwr.missing")
	assert.Contains(t, integrity.Problems, "acquisition acq.bad requires unknown power pwr.ghost")
}

func TestCatalogRejectsUnknownEnums(t *testing.T) {
	s := DefaultSet()
	s.Expressions = append(s.Expressions, Expression{
		ID:         "exp.weird",
		PowerID:    PowerShadow,
		Costs:      []CostSpec{{Type: "MANA", Value: 1}},
		Signatures: []SignatureSpec{{Type: "SMELL", Strength: 1}},
	})

	_, err := NewCatalog(s)
	var integrity *IntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Contains(t, integrity.Problems, `expression exp.weird has unknown cost type "MANA"`)
	assert.Contains(t, integrity.Problems, `expression exp.weird has unknown signature type "SMELL"`)
}

func TestSignaturePersistenceDefaults(t *testing.T) {
	assert.Equal(t, DefaultPersistenceTicks, SignatureSpec{Type: SigEMSpike}.Persistence())
	assert.Equal(t, 2, SignatureSpec{Type: SigEMSpike, PersistenceTicks: 2}.Persistence())
}
