package memory_test

import (
	"testing"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/ports"
)

func TestJournal_Contract(t *testing.T) {
	ports.RunJournalContract(t, memory.NewJournal())
}
