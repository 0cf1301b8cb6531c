package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayload(t *testing.T) {
	assert.Equal(t, "M|C|O|100.00|SUCCESS|U", Payload("M", "C", "O", "100.00", "SUCCESS", "U"))
}

func TestSign_KnownVector(t *testing.T) {
	// RFC 4231 test case 2.
	got := Sign("Jefe", "what do ya want for nothing?")
	assert.Equal(t, "5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843", got)
}

func TestVerify_MatchesCorrectChecksum(t *testing.T) {
	fields := []string{"M", "C", "O", "100.00", "SUCCESS", "U"}
	sum := Sign("K", fields...)

	assert.True(t, Verify("K", sum, fields...))
}

func TestVerify_AnySingleCharacterFlipMismatches(t *testing.T) {
	fields := []string{"M", "C", "O", "100.00", "SUCCESS", "U"}
	sum := Sign("K", fields...)

	for i := range fields {
		for j := range fields[i] {
			mutated := append([]string(nil), fields...)
			b := []byte(mutated[i])
			b[j] ^= 0x01
			mutated[i] = string(b)

			assert.False(t, Verify("K", sum, mutated...), "field %d char %d", i, j)
		}
	}
}

func TestVerify_RejectsWrongKeyAndGarbage(t *testing.T) {
	fields := []string{"M", "C", "O", "100.00", "SUCCESS", "U"}
	sum := Sign("K", fields...)

	assert.False(t, Verify("other", sum, fields...))
	assert.False(t, Verify("K", "", fields...))
	assert.False(t, Verify("K", sum[:10], fields...))
}

func TestVerify_FieldBoundariesMatter(t *testing.T) {
	sum := Sign("K", "ab", "c")
	assert.False(t, Verify("K", sum, "a", "bc"))
}
