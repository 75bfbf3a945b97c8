package leasedkeyq

// node is an element of the intrusive ordered list. It is owned by the
// Queue and exists only while its key is AVAILABLE; once converted into a
// lease (by Get/Take) or dropped (by Ack), the node is discarded.
type node[K comparable, V any] struct {
	key   K
	value V
	prev  *node[K, V]
	next  *node[K, V]
}

// orderedList is a doubly-linked list with permanent head/tail sentinels,
// giving O(1) append, prepend, unlink-by-handle, and pop-front. The FIFO
// order of AVAILABLE keys is the iteration order of this list, oldest at
// the front.
type orderedList[K comparable, V any] struct {
	head *node[K, V]
	tail *node[K, V]
	size int
}

func newOrderedList[K comparable, V any]() *orderedList[K, V] {
	head := &node[K, V]{}
	tail := &node[K, V]{}
	head.next = tail
	tail.prev = head
	return &orderedList[K, V]{head: head, tail: tail}
}

// append splices n in immediately before the tail sentinel.
func (l *orderedList[K, V]) append(n *node[K, V]) {
	n.prev = l.tail.prev
	n.next = l.tail
	l.tail.prev.next = n
	l.tail.prev = n
	l.size++
}

// prepend splices n in immediately after the head sentinel.
func (l *orderedList[K, V]) prepend(n *node[K, V]) {
	n.prev = l.head
	n.next = l.head.next
	l.head.next.prev = n
	l.head.next = n
	l.size++
}

// unlink detaches n using its own prev/next links. The caller must
// guarantee n is currently a member of this list; unlinking a node twice
// corrupts the list.
func (l *orderedList[K, V]) unlink(n *node[K, V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
	l.size--
}

// popFront removes and returns the first non-sentinel node, or nil if the
// list is empty.
func (l *orderedList[K, V]) popFront() *node[K, V] {
	if l.isEmpty() {
		return nil
	}
	n := l.head.next
	l.unlink(n)
	return n
}

func (l *orderedList[K, V]) isEmpty() bool {
	return l.head.next == l.tail
}

func (l *orderedList[K, V]) len() int {
	return l.size
}
