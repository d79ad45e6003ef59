package observable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellSetNotifiesInSubscriptionOrder(t *testing.T) {
	cell := NewCell(0)

	var order []string
	cell.Subscribe(func(v int) { order = append(order, "first") })
	cell.Subscribe(func(v int) { order = append(order, "second") })
	cell.Subscribe(func(v int) { order = append(order, "third") })

	cell.Set(1)
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, 1, cell.Get())
}

func TestCellUnsubscribeStopsDelivery(t *testing.T) {
	cell := NewCell("")

	var calls int
	unsubscribe := cell.Subscribe(func(string) { calls++ })

	cell.Set("a")
	unsubscribe()
	cell.Set("b")

	assert.Equal(t, 1, calls)
	assert.Equal(t, "b", cell.Get())
}

func TestCellSubscribeDuringDeliveryAffectsSubsequentOnly(t *testing.T) {
	cell := NewCell(0)

	var late int
	cell.Subscribe(func(v int) {
		if v == 1 {
			cell.Subscribe(func(int) { late++ })
		}
	})

	cell.Set(1)
	assert.Zero(t, late, "late subscriber must not see the triggering event")

	cell.Set(2)
	assert.Equal(t, 1, late)
}

func TestSourceDeliversInPushOrder(t *testing.T) {
	source := NewSource[int]()

	var first, second []int
	source.Subscribe(func(e int) { first = append(first, e) })
	source.Subscribe(func(e int) { second = append(second, e) })

	for i := 1; i <= 5; i++ {
		source.Push(i)
	}

	expected := []int{1, 2, 3, 4, 5}
	assert.Equal(t, expected, first)
	assert.Equal(t, expected, second)
}

func TestSourceLateSubscriberMissesPriorEvents(t *testing.T) {
	source := NewSource[string]()
	source.Push("lost")

	var seen []string
	source.Subscribe(func(e string) { seen = append(seen, e) })
	source.Push("kept")

	assert.Equal(t, []string{"kept"}, seen)
}

func TestSourceUnsubscribeDuringDelivery(t *testing.T) {
	source := NewSource[int]()

	var calls int
	var unsubscribe func()
	source.Subscribe(func(int) {
		unsubscribe()
	})
	unsubscribe = source.Subscribe(func(int) { calls++ })

	source.Push(1)
	require.Equal(t, 1, calls, "removal mid-delivery applies to later pushes")

	source.Push(2)
	assert.Equal(t, 1, calls)
}

func TestSetAddRemoveContains(t *testing.T) {
	set := NewSet[string]()

	assert.True(t, set.Add("a"))
	assert.False(t, set.Add("a"), "duplicate add is a no-op")
	assert.True(t, set.Contains("a"))
	assert.Equal(t, 1, set.Len())

	assert.True(t, set.Remove("a"))
	assert.False(t, set.Remove("a"))
	assert.False(t, set.Contains("a"))
}

func TestSetChangeNotifications(t *testing.T) {
	set := NewSet[int]()

	var changes []SetChange[int]
	set.Subscribe(func(c SetChange[int]) { changes = append(changes, c) })

	set.Add(7)
	set.Add(7)
	set.Remove(7)
	set.Add(8)
	set.Clear()
	set.Clear()

	require.Len(t, changes, 4)
	assert.Equal(t, SetChange[int]{Op: SetAdd, Elem: 7}, changes[0])
	assert.Equal(t, SetChange[int]{Op: SetRemove, Elem: 7}, changes[1])
	assert.Equal(t, SetChange[int]{Op: SetAdd, Elem: 8}, changes[2])
	assert.Equal(t, SetClear, changes[3].Op)
	assert.Zero(t, changes[3].Elem)
}

func TestSetValues(t *testing.T) {
	set := NewSet[int]()
	set.Add(1)
	set.Add(2)
	set.Add(3)

	assert.ElementsMatch(t, []int{1, 2, 3}, set.Values())
}
