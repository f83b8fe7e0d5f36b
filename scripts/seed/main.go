package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/bankdash/bankdash/internal/bank"
	"github.com/bankdash/bankdash/internal/gateway"
)

type seedBank struct {
	name      string
	year      string
	address   string
	atms      int64
	branches  int64
	employees int64
}

var banks = []seedBank{
	{"Harbour City Bank", "1965-04-12", "200 George Street, Sydney NSW 2000", 412, 58, 3100},
	{"Prairie Savings & Loan", "1921-09-30", "88 Wheatfield Avenue, Regina SK S4P 3Y2", 37, 9, 140},
	{"Northgate Mutual", "1988-01-18", "14 Market Square, Aberdeen AB10 1AA", 120, 22, 860},
	{"Lakeside Credit Union", "2004-06-01", "5 Shoreline Drive, Madison WI 53703", 8, 3, 45},
}

func main() {
	baseURL := getenv("BANK_API_URL", "http://127.0.0.1:8080/api/v1/bank")
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := gateway.New(baseURL)
	validator := bank.NewValidator()

	fmt.Println("→ Seeding banks via", client.BaseURL())
	created := 0
	for _, s := range banks {
		ok, err := seed(ctx, client, validator, s)
		if err != nil {
			log.Fatalf("seed %s: %v", s.name, err)
		}
		if ok {
			created++
		}
	}
	fmt.Printf("✓ Seed complete: %d created, %d already present\n", created, len(banks)-created)
}

func seed(ctx context.Context, client *gateway.Client, validator *bank.Validator, s seedBank) (bool, error) {
	if _, err := client.FindByName(ctx, s.name); err == nil {
		return false, nil
	} else if !gateway.IsNotFound(err) {
		return false, err
	}

	b, errs := validator.Validate(bank.Draft{
		Name:            s.name,
		EstablishedYear: s.year,
		Address:         s.address,
		ATMCount:        fmt.Sprint(s.atms),
		BranchCount:     fmt.Sprint(s.branches),
		EmployeeCount:   fmt.Sprint(s.employees),
	})
	if len(errs) > 0 {
		return false, errs
	}
	stored, err := client.Create(ctx, b)
	if err != nil {
		return false, err
	}
	fmt.Printf("  + %s (id %d)\n", stored.Name, stored.ID)
	return true, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
