package task

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

func TestSequenceID(t *testing.T) {
	assert.Equal(t, "T-1", FormatSequenceID(1))
	assert.Equal(t, "T-1024", FormatSequenceID(1024))

	n, ok := ParseSequenceID("T-42")
	assert.True(t, ok)
	assert.Equal(t, int64(42), n)

	for _, bad := range []string{"", "T-", "T-0", "T--3", "t-3", "X-3", "T-3a"} {
		_, ok := ParseSequenceID(bad)
		assert.False(t, ok, bad)
	}
}

func TestPatch_Apply(t *testing.T) {
	tk := newTestTask()
	tk.SetDetail("keep", "yes")

	title := "New title"
	status := StatusOnHold
	docs := []common.Document{{ID: "d1"}}
	p := Patch{
		Title:     &title,
		Status:    &status,
		Documents: &docs,
		Details:   common.Metadata{"added": "1"},
	}
	assert.False(t, p.IsEmpty())
	p.Apply(tk, testNow)

	assert.Equal(t, "New title", tk.Title)
	assert.Equal(t, StatusOnHold, tk.Status)
	assert.Equal(t, "yes", tk.Detail("keep"))
	assert.Equal(t, "1", tk.Detail("added"))
	assert.Equal(t, testNow, tk.UpdatedAt)

	docs[0].ID = "mutated"
	assert.Equal(t, "d1", tk.Documents[0].ID)

	assert.True(t, Patch{}.IsEmpty())
}

func TestAssignmentRule(t *testing.T) {
	var none *AssignmentRule
	assert.Equal(t, "", none.PrimaryAssignee())
	assert.True(t, none.Permits("anyone"))

	strict := &AssignmentRule{AssigneeIDs: []string{" ", "acc-1", "acc-2"}}
	assert.Equal(t, "acc-1", strict.PrimaryAssignee())
	assert.True(t, strict.Permits("acc-2"))
	assert.False(t, strict.Permits("u9"))

	loose := &AssignmentRule{AssigneeIDs: []string{"acc-1"}, AllowManualOverride: true}
	assert.True(t, loose.Permits("u9"))
}

//Personal.AI order the ending
