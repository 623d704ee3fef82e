package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDesignation(t *testing.T) {
	assert.Equal(t, "CHAISE_VISITEUR", NormalizeDesignation("CHAISE VISITEUR"))
	assert.Equal(t, "ARMOIRE_H__2P", NormalizeDesignation(`ARMOIRE H. 2P`))
	assert.Equal(t, "REF_12_34_", NormalizeDesignation(`REF#12/34!`))
}

func TestDisplayDesignation(t *testing.T) {
	assert.Equal(t, "CHAISE VISITEUR", DisplayDesignation("_CHAISE_VISITEUR"))
	assert.Equal(t, "ARMOIRE", DisplayDesignation("ARMOIRE"))
}
