package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBotSet_Contains(t *testing.T) {
	bots := NewBotSet(DefaultBots, []string{"extra-bot"})

	assert.True(t, bots.Contains("docker-jenkins"))
	assert.True(t, bots.Contains("gordontheturtle"))
	assert.True(t, bots.Contains("GordonTheTurtle"))
	assert.True(t, bots.Contains("EXTRA-BOT"))
	assert.False(t, bots.Contains("jdoe"))
	assert.False(t, bots.Contains(""))
	assert.Equal(t, len(DefaultBots)+1, bots.Len())
}

func TestBotSet_Empty(t *testing.T) {
	var bots BotSet
	assert.False(t, bots.Contains("docker-jenkins"))
	assert.Equal(t, 0, NewBotSet().Len())
}
