package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Order represents the order request wire structure
type Order struct {
	OrderID string  `json:"orderID"`
	Pair    string  `json:"pair"`
	UserID  string  `json:"userID"`
	Side    string  `json:"side"`
	Type    string  `json:"type"`
	Amount  float64 `json:"amount"`
	Price   float64 `json:"price"`
}

// generateRandomID creates a random alphanumeric ID
func generateRandomID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyz0123456789"
	var result strings.Builder
	for i := 0; i < length; i++ {
		result.WriteByte(charset[rand.Intn(len(charset))])
	}
	return result.String()
}

// generateOrders creates a specified number of realistic orders
func generateOrders(count int, pairs []string, basePrice float64, priceSpread float64) []Order {
	orders := make([]Order, count)

	for i := 0; i < count; i++ {
		// Order types: 70% limit, 30% market
		orderType := "limit"
		if rand.Float64() < 0.3 {
			orderType = "market"
		}

		// Order side: 50/50 buy/sell
		side := "sell"
		if rand.Float64() < 0.5 {
			side = "buy"
		}

		pair := pairs[rand.Intn(len(pairs))]

		orderID := generateRandomID(rand.Intn(4) + 5) // 5-8 characters
		userID := generateRandomID(rand.Intn(4) + 6)  // 6-9 characters

		// Order amount between 0.01 and 10.0
		amount := 0.01 + rand.Float64()*9.99
		amount = float64(int(amount*1000)) / 1000 // Round to 3 decimal places

		var price float64
		if orderType == "market" {
			// Market orders execute at resting prices; any price is ignored
			price = 0
		} else {
			if side == "buy" { // Buy order - typically below market
				price = basePrice - rand.Float64()*priceSpread*0.8
			} else { // Sell order - typically above market
				price = basePrice + rand.Float64()*priceSpread*0.8
			}
			price = float64(int(price*10)) / 10 // Round to 1 decimal place
			if price <= 0 {
				price = basePrice
			}
		}

		orders[i] = Order{
			OrderID: orderID,
			Pair:    pair,
			UserID:  userID,
			Side:    side,
			Type:    orderType,
			Amount:  amount,
			Price:   price,
		}
	}

	return orders
}

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "Kafka broker addresses (comma-separated)")
		topic       = flag.String("topic", "orders", "Kafka topic name")
		pairList    = flag.String("pairs", "BTC-USD", "Trading pairs (comma-separated)")
		file        = flag.String("file", "", "JSON file with orders (optional, generates orders if not provided)")
		delay       = flag.Duration("delay", 100*time.Millisecond, "Delay between sending orders")
		count       = flag.Int("count", 1000, "Number of orders to generate")
		basePrice   = flag.Float64("base-price", 3945.5, "Base price for orders")
		priceSpread = flag.Float64("price-spread", 200.0, "Price spread range")
	)
	flag.Parse()

	rand.Seed(time.Now().UnixNano())

	writer := &kafka.Writer{
		Addr:         kafka.TCP(*brokers),
		Topic:        *topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	defer writer.Close()

	ctx := context.Background()

	var orders []Order
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			log.Fatalf("Failed to read file %s: %v", *file, err)
		}
		if err := json.Unmarshal(data, &orders); err != nil {
			log.Fatalf("Failed to parse JSON from file: %v", err)
		}
		log.Printf("Loaded %d orders from file: %s", len(orders), *file)
	} else {
		pairs := strings.Split(*pairList, ",")
		log.Printf("Generating %d orders...", *count)
		orders = generateOrders(*count, pairs, *basePrice, *priceSpread)
		log.Printf("Generated %d orders", len(orders))
	}

	log.Printf("Sending orders to Kafka broker: %s, topic: %s", *brokers, *topic)
	log.Printf("Delay between orders: %v", *delay)

	for i, order := range orders {
		orderJSON, err := json.Marshal(order)
		if err != nil {
			log.Printf("Failed to marshal order %d: %v", i+1, err)
			continue
		}

		msg := kafka.Message{
			Key:   []byte(order.OrderID),
			Value: orderJSON,
			Time:  time.Now(),
		}

		if err := writer.WriteMessages(ctx, msg); err != nil {
			log.Printf("Failed to send order %d (%s): %v", i+1, order.OrderID, err)
			continue
		}

		// Log progress every 100 orders or for the last order
		if (i+1)%100 == 0 || i == len(orders)-1 {
			if order.Type == "market" {
				log.Printf("Sent order %d/%d: %s | %s | %s | %s %s | Amount: %.3f",
					i+1, len(orders), order.OrderID, order.UserID, order.Pair,
					order.Type, order.Side, order.Amount)
			} else {
				log.Printf("Sent order %d/%d: %s | %s | %s | %s %s | Amount: %.3f @ $%.1f",
					i+1, len(orders), order.OrderID, order.UserID, order.Pair,
					order.Type, order.Side, order.Amount, order.Price)
			}
		}

		if i < len(orders)-1 {
			time.Sleep(*delay)
		}
	}

	log.Printf("Successfully sent all %d orders!", len(orders))

	marketOrders := 0
	limitOrders := 0
	buyOrders := 0
	sellOrders := 0

	for _, order := range orders {
		if order.Type == "market" {
			marketOrders++
		} else {
			limitOrders++
		}
		if order.Side == "buy" {
			buyOrders++
		} else {
			sellOrders++
		}
	}

	log.Printf("--- Summary ---")
	log.Printf("Total Orders: %d", len(orders))
	log.Printf("Market Orders: %d", marketOrders)
	log.Printf("Limit Orders: %d", limitOrders)
	log.Printf("Buy Orders: %d", buyOrders)
	log.Printf("Sell Orders: %d", sellOrders)
}
