package services

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"shop_pos_backend/internal/models"
)

var testOperator = Identity{UserID: 1, FullName: "Aset Nurlanov", BusinessID: 10}

func seedStore() (*memStore, int64, int64, int64) {
	store := newMemStore()
	store.addUser(1, "Aset Nurlanov")
	shopID := store.addShop(10, "Main Shop")
	productID := store.addProduct(shopID, 10, "Coca Cola 1L", 10, 500)
	customerID := store.addCustomer(10, "Dana Serikova", "+77010000001")
	return store, shopID, productID, customerID
}

func num(v int64) json.Number {
	return json.Number(strconv.FormatInt(v, 10))
}

func TestCompleteSaleFullPayment(t *testing.T) {
	store, shopID, productID, _ := seedStore()
	svc := newSaleServiceForTest(store)

	result, err := svc.CompleteSale(testOperator, SellRequest{
		ShopID: num(shopID),
		ShopItems: []SellItemRequest{
			{ShopProductID: num(productID), Quantity: json.Number("2"), Price: json.Number("500")},
		},
	})
	if err != nil {
		t.Fatalf("CompleteSale failed: %v", err)
	}

	if result.Total != 1000 {
		t.Errorf("total = %d, want 1000", result.Total)
	}
	if result.Paid != 1000 {
		t.Errorf("paid = %d, want 1000 (omitted amountPaid means full payment)", result.Paid)
	}
	if result.Balance != 0 {
		t.Errorf("balance = %d, want 0", result.Balance)
	}
	if got := store.productQuantity(productID); got != 8 {
		t.Errorf("stock after sale = %d, want 8", got)
	}
	if len(store.debts) != 0 {
		t.Errorf("fully paid sale created %d debt(s), want 0", len(store.debts))
	}

	sale, ok := store.sales[result.SaleID]
	if !ok {
		t.Fatalf("sale %d not persisted", result.SaleID)
	}
	if sale.Total != sale.AmountPaid+sale.Balance {
		t.Errorf("total %d != paid %d + balance %d", sale.Total, sale.AmountPaid, sale.Balance)
	}
	items := store.itemsForSale(result.SaleID)
	if len(items) != 1 {
		t.Fatalf("sale has %d items, want 1", len(items))
	}
	if items[0].Name != "Coca Cola 1L" {
		t.Errorf("item name = %q, want product name snapshot", items[0].Name)
	}
}

func TestCompleteSalePartPaymentAccruesDebt(t *testing.T) {
	store, shopID, productID, customerID := seedStore()
	svc := newSaleServiceForTest(store)

	result, err := svc.CompleteSale(testOperator, SellRequest{
		ShopID: num(shopID),
		ShopItems: []SellItemRequest{
			{ShopProductID: num(productID), Quantity: json.Number("2"), Price: json.Number("500")},
		},
		AmountPaid: json.Number("400"),
		CustomerID: num(customerID),
	})
	if err != nil {
		t.Fatalf("CompleteSale failed: %v", err)
	}
	if result.Balance != 600 {
		t.Fatalf("balance = %d, want 600", result.Balance)
	}

	open := store.openDebtsFor(customerID)
	if len(open) != 1 {
		t.Fatalf("open debts = %d, want 1", len(open))
	}
	if open[0].Balance != 600 || open[0].TotalAmount != 600 || open[0].AmountPaid != 0 {
		t.Errorf("debt = %+v, want total 600, paid 0, balance 600", open[0])
	}

	// A second part-paid sale accrues into the same open debt instead of
	// opening another one.
	_, err = svc.CompleteSale(testOperator, SellRequest{
		ShopID: num(shopID),
		ShopItems: []SellItemRequest{
			{ShopProductID: num(productID), Quantity: json.Number("1"), Price: json.Number("500")},
		},
		AmountPaid: json.Number("100"),
		CustomerID: num(customerID),
	})
	if err != nil {
		t.Fatalf("second CompleteSale failed: %v", err)
	}

	open = store.openDebtsFor(customerID)
	if len(open) != 1 {
		t.Fatalf("open debts after second sale = %d, want 1", len(open))
	}
	if open[0].Balance != 1000 {
		t.Errorf("accrued balance = %d, want 1000 (600 + 400)", open[0].Balance)
	}
	if open[0].TotalAmount != 1000 {
		t.Errorf("accrued total = %d, want 1000", open[0].TotalAmount)
	}
}

func TestCompleteSaleOutsideItems(t *testing.T) {
	store, shopID, _, _ := seedStore()
	svc := newSaleServiceForTest(store)

	result, err := svc.CompleteSale(testOperator, SellRequest{
		ShopID: num(shopID),
		OutsideItems: []OutsideItemRequest{
			{Name: "Plov portion", Quantity: json.Number("2"), Price: json.Number("100")},
		},
	})
	if err != nil {
		t.Fatalf("CompleteSale failed: %v", err)
	}
	if result.Total != 200 {
		t.Errorf("total = %d, want 200", result.Total)
	}

	var miscID int64
	for id, p := range store.products {
		if p.Name == models.MiscProductName {
			miscID = id
		}
	}
	if miscID == 0 {
		t.Fatal("sentinel product was not created")
	}

	items := store.itemsForSale(result.SaleID)
	if len(items) != 1 {
		t.Fatalf("sale has %d items, want 1", len(items))
	}
	if items[0].ShopProductID != miscID {
		t.Errorf("outside line anchored to product %d, want sentinel %d", items[0].ShopProductID, miscID)
	}
	if items[0].Name != "Plov portion" {
		t.Errorf("outside line name = %q, want the provided name", items[0].Name)
	}

	// A second outside sale reuses the sentinel.
	if _, err := svc.CompleteSale(testOperator, SellRequest{
		ShopID: num(shopID),
		OutsideItems: []OutsideItemRequest{
			{Name: "Tea", Quantity: json.Number("1"), Price: json.Number("50")},
		},
	}); err != nil {
		t.Fatalf("second outside sale failed: %v", err)
	}
	sentinels := 0
	for _, p := range store.products {
		if p.Name == models.MiscProductName {
			sentinels++
		}
	}
	if sentinels != 1 {
		t.Errorf("sentinel product count = %d, want 1", sentinels)
	}
}

func TestCompleteSaleMixedCart(t *testing.T) {
	store, shopID, productID, _ := seedStore()
	svc := newSaleServiceForTest(store)

	result, err := svc.CompleteSale(testOperator, SellRequest{
		ShopID: num(shopID),
		ShopItems: []SellItemRequest{
			{ShopProductID: num(productID), Quantity: json.Number("3"), Price: json.Number("500")},
		},
		OutsideItems: []OutsideItemRequest{
			{Name: "Bag", Quantity: json.Number("1"), Price: json.Number("30")},
		},
	})
	if err != nil {
		t.Fatalf("CompleteSale failed: %v", err)
	}
	if result.Total != 1530 {
		t.Errorf("total = %d, want 1530", result.Total)
	}
	if got := store.productQuantity(productID); got != 7 {
		t.Errorf("stock = %d, want 7", got)
	}
	if len(store.itemsForSale(result.SaleID)) != 2 {
		t.Errorf("sale item count = %d, want 2", len(store.itemsForSale(result.SaleID)))
	}
}

func TestCompleteSaleInsufficientStock(t *testing.T) {
	store, shopID, productID, _ := seedStore()
	svc := newSaleServiceForTest(store)

	_, err := svc.CompleteSale(testOperator, SellRequest{
		ShopID: num(shopID),
		ShopItems: []SellItemRequest{
			{ShopProductID: num(productID), Quantity: json.Number("11"), Price: json.Number("500")},
		},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("err = %v, want ErrInsufficientStock", err)
	}
	if !strings.Contains(err.Error(), "Coca Cola 1L") {
		t.Errorf("error %q does not name the product", err)
	}
	if !strings.Contains(err.Error(), "requested 11") || !strings.Contains(err.Error(), "available 10") {
		t.Errorf("error %q does not carry requested/available quantities", err)
	}

	if got := store.productQuantity(productID); got != 10 {
		t.Errorf("stock changed to %d on a failed sale, want 10", got)
	}
	if len(store.sales) != 0 {
		t.Errorf("failed sale persisted %d sale row(s)", len(store.sales))
	}
}

func TestCompleteSaleRollsBackOnLineItemFailure(t *testing.T) {
	store, shopID, productID, _ := seedStore()
	store.failSaleItems = true
	svc := newSaleServiceForTest(store)

	_, err := svc.CompleteSale(testOperator, SellRequest{
		ShopID: num(shopID),
		ShopItems: []SellItemRequest{
			{ShopProductID: num(productID), Quantity: json.Number("2"), Price: json.Number("500")},
		},
	})
	if err == nil {
		t.Fatal("expected error from forced sale item failure")
	}

	// The decrement ran before the failing insert; the rollback must undo it.
	if got := store.productQuantity(productID); got != 10 {
		t.Errorf("stock = %d after rollback, want 10", got)
	}
	if len(store.sales) != 0 || len(store.saleItems) != 0 || len(store.debts) != 0 {
		t.Errorf("rollback left rows behind: %d sales, %d items, %d debts",
			len(store.sales), len(store.saleItems), len(store.debts))
	}
}

func TestCompleteSaleConcurrentSalesNeverOversell(t *testing.T) {
	store, shopID, productID, _ := seedStore()
	store.products[productID] = func() models.ShopProduct {
		p := store.products[productID]
		p.Quantity = 3
		return p
	}()
	svc := newSaleServiceForTest(store)

	req := SellRequest{
		ShopID: num(shopID),
		ShopItems: []SellItemRequest{
			{ShopProductID: num(productID), Quantity: json.Number("2"), Price: json.Number("500")},
		},
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CompleteSale(testOperator, req)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, ErrInsufficientStock) {
			t.Errorf("loser failed with %v, want ErrInsufficientStock", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d of 2 competing sales succeeded, want exactly 1", succeeded)
	}
	if got := store.productQuantity(productID); got != 1 {
		t.Errorf("final stock = %d, want 1", got)
	}
}

func TestCompleteSaleValidation(t *testing.T) {
	store, shopID, productID, customerID := seedStore()
	svc := newSaleServiceForTest(store)

	line := func(qty, price string) []SellItemRequest {
		return []SellItemRequest{{ShopProductID: num(productID), Quantity: json.Number(qty), Price: json.Number(price)}}
	}

	tests := []struct {
		name    string
		req     SellRequest
		wantMsg string
	}{
		{
			name:    "missing shopId",
			req:     SellRequest{ShopItems: line("1", "500"), ShopID: json.Number("")},
			wantMsg: "shopId",
		},
		{
			name:    "zero shopId",
			req:     SellRequest{ShopID: json.Number("0"), ShopItems: line("1", "500")},
			wantMsg: "invalid shopId",
		},
		{
			name:    "empty cart",
			req:     SellRequest{ShopID: num(shopID)},
			wantMsg: "no items to sell",
		},
		{
			name:    "zero quantity",
			req:     SellRequest{ShopID: num(shopID), ShopItems: line("0", "500")},
			wantMsg: "shop item 1",
		},
		{
			name:    "negative price",
			req:     SellRequest{ShopID: num(shopID), ShopItems: line("1", "-5")},
			wantMsg: "shop item 1",
		},
		{
			name:    "fractional quantity",
			req:     SellRequest{ShopID: num(shopID), ShopItems: line("2.5", "500")},
			wantMsg: "whole number",
		},
		{
			name: "outside item without name",
			req: SellRequest{
				ShopID:       num(shopID),
				OutsideItems: []OutsideItemRequest{{Name: "  ", Quantity: json.Number("1"), Price: json.Number("100")}},
			},
			wantMsg: "outside item 1: name is required",
		},
		{
			name: "second line reported by position",
			req: SellRequest{
				ShopID: num(shopID),
				ShopItems: []SellItemRequest{
					{ShopProductID: num(productID), Quantity: json.Number("1"), Price: json.Number("500")},
					{ShopProductID: num(productID), Quantity: json.Number("-1"), Price: json.Number("500")},
				},
			},
			wantMsg: "shop item 2",
		},
		{
			name: "negative amountPaid",
			req: SellRequest{
				ShopID: num(shopID), ShopItems: line("1", "500"),
				AmountPaid: json.Number("-1"), CustomerID: num(customerID),
			},
			wantMsg: "amountPaid cannot be negative",
		},
		{
			name: "overpayment",
			req: SellRequest{
				ShopID: num(shopID), ShopItems: line("1", "500"),
				AmountPaid: json.Number("600"),
			},
			wantMsg: "amountPaid cannot exceed total",
		},
		{
			name: "part payment without customer",
			req: SellRequest{
				ShopID: num(shopID), ShopItems: line("2", "500"),
				AmountPaid: json.Number("400"),
			},
			wantMsg: "customer required for part payment",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CompleteSale(testOperator, tc.req)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error %q does not contain %q", err, tc.wantMsg)
			}
			if got := store.productQuantity(productID); got != 10 {
				t.Errorf("stock = %d after rejected request, want 10", got)
			}
		})
	}
}

func TestCompleteSaleAcceptsIntegerValuedFloats(t *testing.T) {
	store, shopID, productID, _ := seedStore()
	svc := newSaleServiceForTest(store)

	result, err := svc.CompleteSale(testOperator, SellRequest{
		ShopID: num(shopID),
		ShopItems: []SellItemRequest{
			{ShopProductID: num(productID), Quantity: json.Number("2.0"), Price: json.Number("500")},
		},
	})
	if err != nil {
		t.Fatalf("CompleteSale rejected integer-valued float quantity: %v", err)
	}
	if result.Total != 1000 {
		t.Errorf("total = %d, want 1000", result.Total)
	}
}

func TestCompleteSaleTenancy(t *testing.T) {
	store, shopID, productID, customerID := seedStore()
	otherShop := store.addShop(99, "Other Business Shop")
	otherProduct := store.addProduct(otherShop, 99, "Foreign Goods", 5, 100)
	otherCustomer := store.addCustomer(99, "Foreign Customer", "+77020000002")
	svc := newSaleServiceForTest(store)

	// Another tenant's shop surfaces as not found, never as forbidden.
	_, err := svc.CompleteSale(testOperator, SellRequest{
		ShopID: num(otherShop),
		ShopItems: []SellItemRequest{
			{ShopProductID: num(otherProduct), Quantity: json.Number("1"), Price: json.Number("100")},
		},
	})
	if !errors.Is(err, ErrShopNotFound) {
		t.Errorf("foreign shop: err = %v, want ErrShopNotFound", err)
	}

	_, err = svc.CompleteSale(testOperator, SellRequest{
		ShopID: num(shopID),
		ShopItems: []SellItemRequest{
			{ShopProductID: num(otherProduct), Quantity: json.Number("1"), Price: json.Number("100")},
		},
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("foreign product: err = %v, want ErrProductNotFound", err)
	}

	_, err = svc.CompleteSale(testOperator, SellRequest{
		ShopID: num(shopID),
		ShopItems: []SellItemRequest{
			{ShopProductID: num(productID), Quantity: json.Number("1"), Price: json.Number("500")},
		},
		AmountPaid: json.Number("100"),
		CustomerID: num(otherCustomer),
	})
	if !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("foreign customer: err = %v, want ErrCustomerNotFound", err)
	}
	if got := store.productQuantity(productID); got != 10 {
		t.Errorf("stock = %d after rejected sales, want 10", got)
	}
	_ = customerID
}

func TestCompleteSaleLegacyPayload(t *testing.T) {
	store, _, productID, customerID := seedStore()
	svc := newSaleServiceForTest(store)

	// Cash sale: full payment, no debt.
	result, err := svc.CompleteSale(testOperator, SellRequest{
		ShopProductID: num(productID),
		Quantity:      json.Number("2"),
		Price:         json.Number("500"),
		PaymentStatus: "cash",
	})
	if err != nil {
		t.Fatalf("legacy cash sale failed: %v", err)
	}
	if result.Total != 1000 || result.Paid != 1000 || result.Balance != 0 {
		t.Errorf("legacy cash sale = %+v, want total 1000 fully paid", result)
	}
	if got := store.productQuantity(productID); got != 8 {
		t.Errorf("stock = %d, want 8", got)
	}

	// Credit sale: nothing paid, full total becomes debt.
	result, err = svc.CompleteSale(testOperator, SellRequest{
		ShopProductID: num(productID),
		Quantity:      json.Number("1"),
		Price:         json.Number("500"),
		PaymentStatus: "credit",
		CustomerID:    num(customerID),
	})
	if err != nil {
		t.Fatalf("legacy credit sale failed: %v", err)
	}
	if result.Paid != 0 || result.Balance != 500 {
		t.Errorf("legacy credit sale = %+v, want paid 0 balance 500", result)
	}
	open := store.openDebtsFor(customerID)
	if len(open) != 1 || open[0].Balance != 500 {
		t.Errorf("open debts = %+v, want one with balance 500", open)
	}

	// Credit without a customer is rejected before touching anything.
	_, err = svc.CompleteSale(testOperator, SellRequest{
		ShopProductID: num(productID),
		Quantity:      json.Number("1"),
		Price:         json.Number("500"),
		PaymentStatus: "credit",
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("legacy credit without customer: err = %v, want ErrValidation", err)
	}
}

func TestGetSales(t *testing.T) {
	store, shopID, productID, _ := seedStore()
	svc := newSaleServiceForTest(store)

	for i := 0; i < 3; i++ {
		if _, err := svc.CompleteSale(testOperator, SellRequest{
			ShopID: num(shopID),
			ShopItems: []SellItemRequest{
				{ShopProductID: num(productID), Quantity: json.Number("1"), Price: json.Number("500")},
			},
		}); err != nil {
			t.Fatalf("seeding sale %d failed: %v", i, err)
		}
	}

	list, err := svc.GetSales(testOperator.BusinessID, models.SaleFilters{})
	if err != nil {
		t.Fatalf("GetSales failed: %v", err)
	}
	if list.Count != 3 {
		t.Errorf("count = %d, want 3", list.Count)
	}
	if list.TotalRevenue != 1500 {
		t.Errorf("total revenue = %d, want 1500", list.TotalRevenue)
	}

	// Another tenant sees nothing.
	list, err = svc.GetSales(99, models.SaleFilters{})
	if err != nil {
		t.Fatalf("GetSales for other tenant failed: %v", err)
	}
	if list.Count != 0 {
		t.Errorf("foreign tenant sees %d sales, want 0", list.Count)
	}

	badPeriod := "quarter"
	if _, err := svc.GetSales(testOperator.BusinessID, models.SaleFilters{Period: &badPeriod}); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown period: err = %v, want ErrValidation", err)
	}
}
