package domain

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, got.Equal(money(want)), "want %s, got %s", want, got)
}

func product(id, retail, wholesale string) Product {
	return Product{ID: id, Name: "Producto " + id, RetailPrice: money(retail), WholesalePrice: money(wholesale)}
}

func TestCart_AddSameProductTwiceIncrementsQuantity(t *testing.T) {
	var c Cart
	p := product("p1", "120", "90")

	c.Add(p, false)
	c.Add(p, false)

	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	assertMoney(t, "120", c.Items[0].UnitPrice)
}

func TestCart_AddKeepsInsertionOrder(t *testing.T) {
	var c Cart
	c.Add(product("b", "10", "0"), false)
	c.Add(product("a", "20", "0"), false)
	c.Add(product("b", "10", "0"), false)

	require.Len(t, c.Items, 2)
	assert.Equal(t, "b", c.Items[0].ProductID)
	assert.Equal(t, "a", c.Items[1].ProductID)
}

func TestCart_WholesaleTierSelectsWholesalePrice(t *testing.T) {
	var c Cart
	c.Add(product("p1", "100", "70"), true)

	require.Len(t, c.Items, 1)
	assertMoney(t, "70", c.Items[0].UnitPrice)
}

func TestCart_WholesaleTierFallsBackToRetailWithoutWholesalePrice(t *testing.T) {
	var c Cart
	c.Add(product("p1", "100", "0"), true)

	assertMoney(t, "100", c.Items[0].UnitPrice)
}

func TestCart_SetQuantityZeroRemovesLine(t *testing.T) {
	var c Cart
	c.Add(product("p1", "100", "0"), false)
	c.Add(product("p2", "30", "0"), false)

	c.SetQuantity("p1", 0)

	require.Len(t, c.Items, 1)
	assert.Equal(t, "p2", c.Items[0].ProductID)
	assertMoney(t, "30", c.Totals().Subtotal)
}

func TestCart_SetQuantityNegativeRemovesLine(t *testing.T) {
	var c Cart
	c.Add(product("p1", "100", "0"), false)
	c.SetQuantity("p1", -3)
	assert.True(t, c.IsEmpty())
}

func TestCart_SetQuantityReplaces(t *testing.T) {
	var c Cart
	c.Add(product("p1", "100", "0"), false)
	c.SetQuantity("p1", 7)
	assert.Equal(t, 7, c.Items[0].Quantity)

	c.SetQuantity("missing", 4)
	assert.Len(t, c.Items, 1)
}

func TestCart_RemoveAbsentIsNoop(t *testing.T) {
	var c Cart
	c.Add(product("p1", "100", "0"), false)
	c.Remove("nope")
	assert.Len(t, c.Items, 1)
}

func TestCart_ClearEmpties(t *testing.T) {
	var c Cart
	c.Add(product("p1", "100", "0"), false)
	c.Clear()
	assert.True(t, c.IsEmpty())
}

func TestComputeTotals_Shipping(t *testing.T) {
	cases := []struct {
		name     string
		price    string
		qty      int
		shipping string
		total    string
	}{
		{"below threshold", "120", 2, "50", "290"},
		{"exactly threshold", "500", 1, "0", "500"},
		{"just under threshold", "499.99", 1, "50", "549.99"},
		{"above threshold", "600", 1, "0", "600"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totals := ComputeTotals([]LineItem{{ProductID: "x", UnitPrice: money(tc.price), Quantity: tc.qty}})
			assertMoney(t, tc.shipping, totals.Shipping)
			assertMoney(t, tc.total, totals.Total)
		})
	}
}

func TestComputeTotals_EmptyCartIsFree(t *testing.T) {
	var c Cart
	c.Add(product("p1", "10", "0"), false)
	c.Clear()

	totals := c.Totals()
	assertMoney(t, "0", totals.Subtotal)
	assertMoney(t, "0", totals.Shipping)
	assertMoney(t, "0", totals.Total)
}

func TestComputeTotals_SubtotalMatchesLinesAfterRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	catalog := []Product{
		product("p1", "19.99", "15"),
		product("p2", "250", "200"),
		product("p3", "0.5", "0"),
		product("p4", "1200", "999.90"),
	}

	for run := 0; run < 50; run++ {
		var c Cart
		wholesale := run%2 == 0
		for step := 0; step < 40; step++ {
			p := catalog[rng.Intn(len(catalog))]
			switch rng.Intn(3) {
			case 0:
				c.Add(p, wholesale)
			case 1:
				c.Remove(p.ID)
			default:
				c.SetQuantity(p.ID, rng.Intn(6)-1)
			}

			want := decimal.Zero
			seen := map[string]bool{}
			for _, it := range c.Items {
				require.False(t, seen[it.ProductID], "duplicate line for %s", it.ProductID)
				seen[it.ProductID] = true
				require.GreaterOrEqual(t, it.Quantity, 1)
				want = want.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
			}
			got := c.Totals()
			require.True(t, got.Subtotal.Equal(want), fmt.Sprintf("run %d step %d: want %s got %s", run, step, want, got.Subtotal))
			require.True(t, got.Total.Equal(got.Subtotal.Add(got.Shipping)))
		}
	}
}
