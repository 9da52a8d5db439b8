package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RotomDaPesteBR/el-shadai/kafka"
	"github.com/RotomDaPesteBR/el-shadai/model"
)

type IService interface {
	Checkout(ctx context.Context, clientID int64, input CheckoutInput) (OrderSummary, error)
	ClientOrders(ctx context.Context, clientID int64) ([]OrderSummary, error)
	OrderDetails(ctx context.Context, orderID, clientID int64) (OrderDetails, error)
	PendingDeliveryOrders(ctx context.Context) ([]DeliveryOrder, error)
	UpdateStatus(ctx context.Context, orderID int64, newStatus string) error
	DashboardMetrics(ctx context.Context) (Metrics, error)
	RelayMessage(ctx context.Context, limit int) error
	ConsumeStatusUpdates(ctx context.Context, stopAfter time.Duration)
}

func NewService(
	repo IRepo,
	producer kafka.IProducer,
	statusConsumer kafka.IConsumer,
) IService {
	return &service{
		repo:           repo,
		producer:       producer,
		statusConsumer: statusConsumer,
	}
}

type service struct {
	repo           IRepo
	producer       kafka.IProducer
	statusConsumer kafka.IConsumer
}

type CartItem struct {
	ID       int64  `json:"id"`
	Quantity int    `json:"quantity"`
	Name     string `json:"name"`
}

type CheckoutInput struct {
	DeliveryOption string              `json:"deliveryOption"`
	PaymentMethod  string              `json:"paymentMethod"`
	ChangeNeeded   decimal.NullDecimal `json:"changeNeeded"`
	CartItems      []CartItem          `json:"cartItems"`
}

type OrderSummary struct {
	ID         int64           `json:"id"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
}

type OrderProduct struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
}

type OrderDetails struct {
	ID             int64           `json:"id"`
	TotalPrice     decimal.Decimal `json:"totalPrice"`
	Status         string          `json:"status"`
	DeliveryMethod string          `json:"deliveryMethod"`
	CreatedAt      time.Time       `json:"createdAt"`
	Products       []OrderProduct  `json:"products"`
}

type DeliveryOrder struct {
	ID            int64           `json:"id"`
	ClientName    string          `json:"clientName"`
	ClientAddress string          `json:"clientAddress"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Status        string          `json:"status"`
	Products      []OrderProduct  `json:"products"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type StatusMetric struct {
	Status  string          `json:"status"`
	Count   int64           `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Metrics struct {
	TotalOrders   int64           `json:"totalOrders"`
	TotalRevenue  decimal.Decimal `json:"totalRevenue"`
	StatusMetrics []StatusMetric  `json:"statusMetrics"`
}

// cartLine is a cart item after normalization: duplicate lines for the same
// product are merged so stock is checked and decremented once per product.
type cartLine struct {
	productID int64
	quantity  int
	name      string
}

type stockDecrement struct {
	productID int64
	quantity  int
}

// writePlan is the fully resolved, not yet committed set of rows and
// mutations one checkout intends to apply.
type writePlan struct {
	order      model.Order
	items      []model.OrderItem
	decrements []stockDecrement
	names      map[int64]string
	event      OrderCreatedEvent
}

// Checkout validates the cart against live stock, builds the write plan from
// authoritative prices and commits it atomically. The result is binary: a
// fully persisted order, or no order at all.
func (s service) Checkout(ctx context.Context, clientID int64, input CheckoutInput) (OrderSummary, error) {
	lines, err := normalizeCart(input.CartItems)
	if err != nil {
		return OrderSummary{}, err
	}

	methodLabel, err := deliveryMethodLabel(input.DeliveryOption)
	if err != nil {
		return OrderSummary{}, err
	}
	if input.PaymentMethod != "cash" && input.PaymentMethod != "card" {
		return OrderSummary{}, ErrInvalidPaymentMethod
	}

	if methodLabel == model.MethodDelivery {
		address, err := s.repo.GetClientAddress(ctx, clientID)
		if err != nil {
			return OrderSummary{}, err
		}
		if address == "" {
			return OrderSummary{}, ErrNoDeliveryAddress
		}
	}

	prices, err := s.validateStock(ctx, lines)
	if err != nil {
		return OrderSummary{}, err
	}

	plan, err := s.buildPlan(ctx, clientID, methodLabel, input, lines, prices)
	if err != nil {
		return OrderSummary{}, err
	}

	return s.commit(ctx, plan)
}

func normalizeCart(items []CartItem) ([]cartLine, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	index := make(map[int64]int, len(items))
	var lines []cartLine
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, item.ID)
		}
		if at, ok := index[item.ID]; ok {
			lines[at].quantity += item.Quantity
			continue
		}
		index[item.ID] = len(lines)
		lines = append(lines, cartLine{
			productID: item.ID,
			quantity:  item.Quantity,
			name:      item.Name,
		})
	}
	return lines, nil
}

func deliveryMethodLabel(option string) (string, error) {
	switch option {
	case "delivery":
		return model.MethodDelivery, nil
	case "pickup":
		return model.MethodPickup, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDeliveryOption, option)
	}
}

func deliveryOptionOf(methodLabel string) string {
	if methodLabel == model.MethodDelivery {
		return "delivery"
	}
	return "pickup"
}

// validateStock is the read-only pre-flight check. It loads every referenced
// product in a single read and reports all shortfalls at once; on success it
// returns the authoritative unit prices captured at validation time. Stock can
// still change before commit, so the conditional decrement remains the actual
// correctness boundary.
func (s service) validateStock(ctx context.Context, lines []cartLine) (map[int64]decimal.Decimal, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.productID)
	}

	products, err := s.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]model.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	var shortfalls []StockItemError
	prices := make(map[int64]decimal.Decimal, len(lines))
	for _, line := range lines {
		product, ok := byID[line.productID]
		if !ok {
			shortfalls = append(shortfalls, StockItemError{
				ProductID:      line.productID,
				ProductName:    line.name,
				AvailableStock: 0,
			})
			continue
		}
		if line.quantity > product.Stock {
			shortfalls = append(shortfalls, StockItemError{
				ProductID:      line.productID,
				ProductName:    line.name,
				AvailableStock: product.Stock,
			})
			continue
		}
		prices[line.productID] = product.Price
	}

	if len(shortfalls) > 0 {
		return nil, &StockShortfallError{Items: shortfalls}
	}
	return prices, nil
}

// buildPlan resolves reference data and computes the total from authoritative
// unit prices. It only computes; nothing is written here.
func (s service) buildPlan(
	ctx context.Context,
	clientID int64,
	methodLabel string,
	input CheckoutInput,
	lines []cartLine,
	prices map[int64]decimal.Decimal,
) (writePlan, error) {
	state, err := s.repo.GetOrderStateByLabel(ctx, model.StatePending)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return writePlan{}, fmt.Errorf("%w: order state %q", ErrReferenceData, model.StatePending)
		}
		return writePlan{}, err
	}

	method, err := s.repo.GetDeliveryMethodByLabel(ctx, methodLabel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return writePlan{}, fmt.Errorf("%w: delivery method %q", ErrReferenceData, methodLabel)
		}
		return writePlan{}, err
	}

	total := decimal.Zero
	items := make([]model.OrderItem, 0, len(lines))
	decrements := make([]stockDecrement, 0, len(lines))
	eventItems := make([]OrderCreatedEventItem, 0, len(lines))
	names := make(map[int64]string, len(lines))
	for _, line := range lines {
		unitPrice := prices[line.productID]
		total = total.Add(unitPrice.Mul(decimal.NewFromInt(int64(line.quantity))))
		items = append(items, model.OrderItem{
			ProductID: line.productID,
			Quantity:  line.quantity,
			UnitPrice: unitPrice,
		})
		decrements = append(decrements, stockDecrement{productID: line.productID, quantity: line.quantity})
		eventItems = append(eventItems, OrderCreatedEventItem{ProductID: line.productID, Quantity: line.quantity})
		names[line.productID] = line.name
	}

	return writePlan{
		order: model.Order{
			ClientID:         clientID,
			Price:            total,
			OrderStateID:     state.ID,
			DeliveryMethodID: method.ID,
			PaymentMethod:    input.PaymentMethod,
			ChangeNeeded:     input.ChangeNeeded,
		},
		items:      items,
		decrements: decrements,
		names:      names,
		event: OrderCreatedEvent{
			ClientID:       clientID,
			TotalPrice:     total,
			DeliveryMethod: methodLabel,
			Items:          eventItems,
		},
	}, nil
}

// commit persists the plan as one transaction: order row, line items,
// conditional stock decrements and the outbox event. Any failed decrement
// aborts the whole transaction and surfaces the offending products.
func (s service) commit(ctx context.Context, plan writePlan) (OrderSummary, error) {
	var orderID int64
	err := s.repo.Transact(ctx, func(ctx context.Context) error {
		id, err := s.repo.CreateOrder(ctx, plan.order)
		if err != nil {
			return err
		}
		orderID = id

		items := make([]model.OrderItem, len(plan.items))
		for i, item := range plan.items {
			item.OrderID = id
			items[i] = item
		}
		if err := s.repo.CreateOrderItems(ctx, items); err != nil {
			return err
		}

		var conflicted []int64
		for _, dec := range plan.decrements {
			ok, err := s.repo.DecrementStock(ctx, dec.productID, dec.quantity)
			if err != nil {
				return err
			}
			if !ok {
				conflicted = append(conflicted, dec.productID)
			}
		}
		if len(conflicted) > 0 {
			return s.conflictError(ctx, conflicted, plan.names)
		}

		event := plan.event
		event.OrderID = id
		content, err := json.Marshal(event)
		if err != nil {
			return err
		}
		return s.repo.CreateOutbox(ctx, model.Outbox{Content: content})
	})
	if err != nil {
		return OrderSummary{}, err
	}

	created, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return OrderSummary{}, err
	}
	return OrderSummary{
		ID:         created.ID,
		TotalPrice: created.Price,
		Status:     model.StatePending,
		CreatedAt:  created.CreatedAt.Time,
	}, nil
}

// conflictError re-reads the conflicted products so the error carries the
// stock counts the caller will see on revalidation.
func (s service) conflictError(ctx context.Context, productIDs []int64, names map[int64]string) error {
	products, err := s.repo.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return err
	}
	stockByID := make(map[int64]int, len(products))
	for _, product := range products {
		stockByID[product.ID] = product.Stock
	}

	items := make([]StockItemError, 0, len(productIDs))
	for _, id := range productIDs {
		items = append(items, StockItemError{
			ProductID:      id,
			ProductName:    names[id],
			AvailableStock: stockByID[id],
		})
	}
	return &StockConflictError{Items: items}
}

func (s service) ClientOrders(ctx context.Context, clientID int64) ([]OrderSummary, error) {
	rows, err := s.repo.ListClientOrders(ctx, clientID)
	if err != nil {
		return nil, err
	}

	res := make([]OrderSummary, 0, len(rows))
	for _, row := range rows {
		res = append(res, OrderSummary{
			ID:         row.ID,
			TotalPrice: row.Price,
			Status:     row.State,
			CreatedAt:  row.CreatedAt.Time,
		})
	}
	return res, nil
}

func (s service) OrderDetails(ctx context.Context, orderID, clientID int64) (OrderDetails, error) {
	detail, err := s.repo.GetOrderDetail(ctx, orderID, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OrderDetails{}, ErrOrderNotFound
		}
		return OrderDetails{}, err
	}

	itemRows, err := s.repo.GetOrderItems(ctx, []int64{orderID})
	if err != nil {
		return OrderDetails{}, err
	}

	products := make([]OrderProduct, 0, len(itemRows))
	for _, row := range itemRows {
		products = append(products, OrderProduct{
			ID:       row.ProductID,
			Name:     row.Name,
			Price:    row.UnitPrice,
			Image:    row.Image.String,
			Quantity: row.Quantity,
		})
	}

	return OrderDetails{
		ID:             detail.ID,
		TotalPrice:     detail.Price,
		Status:         detail.State,
		DeliveryMethod: deliveryOptionOf(detail.Method),
		CreatedAt:      detail.CreatedAt.Time,
		Products:       products,
	}, nil
}

func (s service) PendingDeliveryOrders(ctx context.Context) ([]DeliveryOrder, error) {
	rows, err := s.repo.ListPendingDeliveryOrders(ctx)
	if err != nil {
		return nil, err
	}

	orderIDs := make([]int64, 0, len(rows))
	for _, row := range rows {
		orderIDs = append(orderIDs, row.ID)
	}
	itemRows, err := s.repo.GetOrderItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}
	itemsByOrder := make(map[int64][]OrderProduct, len(rows))
	for _, row := range itemRows {
		itemsByOrder[row.OrderID] = append(itemsByOrder[row.OrderID], OrderProduct{
			ID:       row.ProductID,
			Name:     row.Name,
			Price:    row.UnitPrice,
			Image:    row.Image.String,
			Quantity: row.Quantity,
		})
	}

	res := make([]DeliveryOrder, 0, len(rows))
	for _, row := range rows {
		res = append(res, DeliveryOrder{
			ID:            row.ID,
			ClientName:    row.ClientName,
			ClientAddress: row.ClientAddress,
			TotalPrice:    row.Price,
			Status:        row.State,
			Products:      itemsByOrder[row.ID],
			CreatedAt:     row.CreatedAt.Time,
		})
	}
	return res, nil
}

// Legal status transitions. Pickup orders skip "On the way".
var legalTransitions = map[string][]string{
	model.StatePending:  {model.StateOnTheWay, model.StateDelivered},
	model.StateOnTheWay: {model.StateDelivered},
}

func (s service) UpdateStatus(ctx context.Context, orderID int64, newStatus string) error {
	state, err := s.repo.GetOrderStateByLabel(ctx, newStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
		}
		return err
	}

	return s.repo.Transact(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetOrderStatusLabel(ctx, orderID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return err
		}

		allowed := false
		for _, next := range legalTransitions[current] {
			if next == newStatus {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("%w: %q -> %q", ErrIllegalTransition, current, newStatus)
		}

		return s.repo.UpdateOrderState(ctx, orderID, state.ID)
	})
}

func (s service) DashboardMetrics(ctx context.Context) (Metrics, error) {
	total, err := s.repo.CountOrders(ctx)
	if err != nil {
		return Metrics{}, err
	}
	revenue, err := s.repo.SumRevenue(ctx)
	if err != nil {
		return Metrics{}, err
	}
	rows, err := s.repo.StateMetrics(ctx)
	if err != nil {
		return Metrics{}, err
	}

	metrics := make([]StatusMetric, 0, len(rows))
	for _, row := range rows {
		metrics = append(metrics, StatusMetric{
			Status:  row.State,
			Count:   row.OrderCount,
			Revenue: row.Revenue,
		})
	}
	return Metrics{
		TotalOrders:   total,
		TotalRevenue:  revenue,
		StatusMetrics: metrics,
	}, nil
}

func (s service) RelayMessage(ctx context.Context, limit int) error {
	outboxes, err := s.repo.GetPendingOutbox(ctx, limit)
	if err != nil {
		return err
	}
	err = s.producer.Push(extractContents(outboxes))
	if err != nil {
		return err
	}

	return s.repo.MarkDoneOutboxes(ctx, extractIDs(outboxes))
}

func extractIDs(outboxes []model.Outbox) []int64 {
	var res []int64
	for _, outbox := range outboxes {
		res = append(res, outbox.ID)
	}
	return res
}

func extractContents(outboxes []model.Outbox) [][]byte {
	var res [][]byte
	for _, outbox := range outboxes {
		res = append(res, outbox.Content)
	}
	return res
}

// ConsumeStatusUpdates applies delivery status events from the fleet app
// until ctx is done or stopAfter elapses (0 means run forever).
func (s service) ConsumeStatusUpdates(ctx context.Context, stopAfter time.Duration) {
	startTime := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-s.statusConsumer.Messages():
			var event DeliveryStatusEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("Failed to decode status event at %s/%d/%d: %s",
					msg.Topic, msg.Partition, msg.Offset, err)
				continue
			}
			if err := s.UpdateStatus(ctx, event.OrderID, event.Status); err != nil {
				log.Printf("Failed to apply status %q to order %d: %s",
					event.Status, event.OrderID, err)
			}
		case err := <-s.statusConsumer.Errors():
			log.Printf("Failed to consume message: %s", err)
		default:
			if stopAfter != 0 && time.Now().After(startTime.Add(stopAfter)) {
				return
			}
		}
	}
}
