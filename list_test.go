package leasedkeyq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedList(t *testing.T) {
	var newList = func() *orderedList[string, int] {
		return newOrderedList[string, int]()
	}

	t.Run("should start empty", func(t *testing.T) {
		// Arrange & Act
		var sut = newList()

		// Assert
		assert.True(t, sut.isEmpty())
		assert.Equal(t, 0, sut.len())
		assert.Nil(t, sut.popFront())
	})

	t.Run("should preserve FIFO order across appends", func(t *testing.T) {
		// Arrange
		var sut = newList()
		var a = &node[string, int]{key: "a", value: 1}
		var b = &node[string, int]{key: "b", value: 2}
		var c = &node[string, int]{key: "c", value: 3}

		// Act
		sut.append(a)
		sut.append(b)
		sut.append(c)

		// Assert
		require.Equal(t, 3, sut.len())
		assert.Equal(t, a, sut.popFront())
		assert.Equal(t, b, sut.popFront())
		assert.Equal(t, c, sut.popFront())
		assert.True(t, sut.isEmpty())
	})

	t.Run("should put prepended nodes ahead of appended ones", func(t *testing.T) {
		// Arrange
		var sut = newList()
		var a = &node[string, int]{key: "a", value: 1}
		var b = &node[string, int]{key: "b", value: 2}

		// Act
		sut.append(a)
		sut.prepend(b)

		// Assert
		assert.Equal(t, b, sut.popFront())
		assert.Equal(t, a, sut.popFront())
	})

	t.Run("should unlink a node from the middle without disturbing order", func(t *testing.T) {
		// Arrange
		var sut = newList()
		var a = &node[string, int]{key: "a", value: 1}
		var b = &node[string, int]{key: "b", value: 2}
		var c = &node[string, int]{key: "c", value: 3}
		sut.append(a)
		sut.append(b)
		sut.append(c)

		// Act
		sut.unlink(b)

		// Assert
		require.Equal(t, 2, sut.len())
		assert.Equal(t, a, sut.popFront())
		assert.Equal(t, c, sut.popFront())
	})
}
