package leasedkeyq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLeaseRecord(t *testing.T) {
	t.Run("should generate distinct tokens", func(t *testing.T) {
		// Arrange & Act
		var a = newLeaseToken()
		var b = newLeaseToken()

		// Assert
		assert.NotEmpty(t, a)
		assert.NotEqual(t, a, b)
	})

	t.Run("should never expire without a timeout", func(t *testing.T) {
		// Arrange
		var sut = &leaseRecord[string, int]{
			createdAt: time.Now().Add(-24 * time.Hour),
			timeout:   nil,
		}

		// Act & Assert
		assert.False(t, sut.expired(time.Now()))
	})

	t.Run("should expire once its timeout has elapsed", func(t *testing.T) {
		// Arrange
		var timeout = 10 * time.Millisecond
		var sut = &leaseRecord[string, int]{
			createdAt: time.Now().Add(-1 * time.Hour),
			timeout:   &timeout,
		}

		// Act & Assert
		assert.True(t, sut.expired(time.Now()))
	})

	t.Run("should not expire before its timeout has elapsed", func(t *testing.T) {
		// Arrange
		var timeout = 1 * time.Hour
		var sut = &leaseRecord[string, int]{
			createdAt: time.Now(),
			timeout:   &timeout,
		}

		// Act & Assert
		assert.False(t, sut.expired(time.Now()))
	})
}
