// Command stress fires concurrent order requests at a running server to
// observe stock serialization under load. Expects the target option to
// exist; see migrations/schema.sql seed data.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	var (
		baseURL  = flag.String("url", "http://localhost:8080", "server base URL")
		itemID   = flag.Int64("item", 1, "item id to order")
		optionID = flag.Int64("option", 1, "option id to order")
		quantity = flag.Int64("quantity", 1, "quantity per order")
		requests = flag.Int("requests", 50, "number of concurrent requests")
	)
	flag.Parse()

	body, err := json.Marshal(map[string]any{
		"lines": []map[string]any{
			{"item_id": *itemID, "option_id": *optionID, "quantity": *quantity},
		},
	})
	if err != nil {
		log.Fatalf("build request body: %v", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}

	var created, outOfStock, failed atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < *requests; i++ {
		wg.Add(1)
		go func(memberID int) {
			defer wg.Done()

			req, err := http.NewRequest(http.MethodPost, *baseURL+"/api/orders", bytes.NewReader(body))
			if err != nil {
				failed.Add(1)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Member-ID", fmt.Sprintf("%d", memberID+1))

			resp, err := client.Do(req)
			if err != nil {
				failed.Add(1)
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			switch resp.StatusCode {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusConflict:
				outOfStock.Add(1)
			default:
				failed.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("========== STRESS RESULTS ==========")
	fmt.Printf("Total Requests:   %d\n", *requests)
	fmt.Printf("Created:          %d\n", created.Load())
	fmt.Printf("Out of Stock:     %d\n", outOfStock.Load())
	fmt.Printf("Failed:           %d\n", failed.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("====================================")
}
