package papyrus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/probechain/papyrus-core/common"
)

func threeIntVars() []*Variable {
	return []*Variable{
		{Tag: TagInteger, Int: 1},
		{Tag: TagInteger, Int: 2},
		{Tag: TagInteger, Int: 3},
	}
}

func TestInstanceDataSetVariableRejectsZeroIndex(t *testing.T) {
	d := &instanceData{Vars: threeIntVars()}
	err := d.SetVariable(0, &Variable{Tag: TagInteger, Int: 99})
	assert.Same(t, common.ErrZeroIndex, err)
	assert.Equal(t, int32(1), d.Vars[0].Int, "rejected write must not mutate the slot")
}

func TestInstanceDataSetVariableRejectsOutOfBounds(t *testing.T) {
	d := &instanceData{Vars: threeIntVars()}
	err := d.SetVariable(3, &Variable{Tag: TagInteger, Int: 99})
	assert.Same(t, common.ErrIndexOutOfBounds, err)
}

func TestInstanceDataSetVariableAccepts(t *testing.T) {
	d := &instanceData{Vars: threeIntVars()}
	v := &Variable{Tag: TagInteger, Int: 42}
	assert.NoError(t, d.SetVariable(1, v))
	assert.Same(t, v, d.Vars[1])
}

func TestArrayInfoSetElementRejectsZeroIndex(t *testing.T) {
	a := &ArrayInfo{ElemType: TagInteger, Vars: threeIntVars()}
	err := a.SetElement(0, &Variable{Tag: TagInteger, Int: 99})
	assert.Same(t, common.ErrZeroIndex, err)
}

func TestArrayInfoSetElementAccepts(t *testing.T) {
	a := &ArrayInfo{ElemType: TagInteger, Vars: threeIntVars()}
	v := &Variable{Tag: TagInteger, Int: 7}
	assert.NoError(t, a.SetElement(2, v))
	assert.Same(t, v, a.Vars[2])
}
