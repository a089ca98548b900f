package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectorEndpoints(t *testing.T) {
	c := NewConnector(NewID(), "", NewID())
	out, in := NewID(), NewID()

	assert.False(t, c.IsComplete())
	assert.False(t, c.IsConnectedPort(NilID))

	c.SetEndpoint(Output, out)
	c.SetEndpoint(Input, in)

	assert.Equal(t, out, c.StartPort)
	assert.Equal(t, in, c.Endpoint(Input))
	assert.True(t, c.IsComplete())
	assert.True(t, c.IsConnectedPort(out))
	assert.False(t, c.IsConnectedPort(NewID()))
}

func TestPortAllowsMultiple(t *testing.T) {
	p := &Port{Direction: Input, AllowMultipleInput: true, AllowMultipleOutput: false}
	assert.True(t, p.AllowsMultiple())

	p.Direction = Output
	assert.False(t, p.AllowsMultiple())
}

func TestPortConnectors(t *testing.T) {
	p := &Port{}
	id := NewID()
	p.AttachConnector(id)
	p.AttachConnector(id)
	assert.Equal(t, []ID{id}, p.Connectors)
	assert.True(t, p.DetachConnector(id))
	assert.False(t, p.HasConnector(id))
}
