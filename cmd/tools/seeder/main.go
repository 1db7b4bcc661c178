package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedRegions(db)
	seedPricingRules(db)
	seedQuantityBreaks(db)
	seedGiftRules(db)
	seedAutoDiscounts(db)
	seedExemptions(db)

	log.Println("Seeding completed successfully!")
}

func seedRegions(db *sql.DB) {
	regions := []struct {
		ID           string
		Name         string
		DefaultRate  string
		ReducedRates string
		Threshold    string
		DigitalRate  string
		Currency     string
	}{
		{"eu", "European Union", "20", `[{"name":"Food","rate":5,"categories":["bread","pastry","cake"]},{"name":"Books","rate":7,"categories":["books"]}]`, "500", "3", "EUR"},
		{"uk", "United Kingdom", "20", `[{"name":"Food","rate":0,"categories":["bread","pastry"]}]`, "750", "2", "GBP"},
		{"us", "United States", "8.5", `[]`, "0", "0", "USD"},
		{"sy", "Syria", "0", `[]`, "0", "0", "SYP"},
	}

	fmt.Println("Seeding Tax Regions...")
	for _, r := range regions {
		_, err := db.Exec(`
			INSERT INTO tax_regions (id, name, default_rate, reduced_rates, reverse_charge_threshold, digital_services_rate, currency)
			VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				default_rate = EXCLUDED.default_rate,
				reduced_rates = EXCLUDED.reduced_rates,
				reverse_charge_threshold = EXCLUDED.reverse_charge_threshold,
				digital_services_rate = EXCLUDED.digital_services_rate,
				currency = EXCLUDED.currency,
				updated_at = now();
		`, r.ID, r.Name, r.DefaultRate, r.ReducedRates, r.Threshold, r.DigitalRate, r.Currency)
		if err != nil {
			log.Printf("Failed to seed region %s: %v", r.ID, err)
		}
	}
}

func seedPricingRules(db *sql.DB) {
	rules := []struct {
		ID          string
		Name        string
		Type        string
		CondField   string
		CondOp      string
		CondValue   string
		ActionType  string
		ActionValue string
		Priority    int
	}{
		{"bulk-dozen", "Dozen discount", "quantity_discount", "quantity", ">=", "12", "percentage", "-10", 10},
		{"early-bird", "Early bird pastries", "time_based", "order_time", "<=", "0", "percentage", "-10", 5},
		{"gold-loyalty", "Gold customer pricing", "customer_tier", "tier", "=", "0", "percentage", "-10", 8},
		{"ramadan-special", "Ramadan evening special", "seasonal", "order_time", ">=", "0", "percentage", "-15", 3},
	}

	fmt.Println("Seeding Pricing Rules...")
	for _, r := range rules {
		_, err := db.Exec(`
			INSERT INTO pricing_rules (id, name, rule_type, condition_field, condition_op, condition_value, action_type, action_value, priority, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, TRUE)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				action_value = EXCLUDED.action_value,
				priority = EXCLUDED.priority;
		`, r.ID, r.Name, r.Type, r.CondField, r.CondOp, r.CondValue, r.ActionType, r.ActionValue, r.Priority)
		if err != nil {
			log.Printf("Failed to seed pricing rule %s: %v", r.ID, err)
		}
	}
}

func seedQuantityBreaks(db *sql.DB) {
	breaks := []struct {
		Min     int
		Max     sql.NullInt64
		Percent string
	}{
		{10, sql.NullInt64{Int64: 19, Valid: true}, "10"},
		{20, sql.NullInt64{Int64: 49, Valid: true}, "15"},
		{50, sql.NullInt64{}, "20"},
	}

	fmt.Println("Seeding Quantity Breaks...")
	if _, err := db.Exec(`DELETE FROM quantity_breaks`); err != nil {
		log.Printf("Failed to clear quantity breaks: %v", err)
		return
	}
	for _, b := range breaks {
		_, err := db.Exec(`
			INSERT INTO quantity_breaks (min_qty, max_qty, discount_percent)
			VALUES ($1, $2, $3);
		`, b.Min, b.Max, b.Percent)
		if err != nil {
			log.Printf("Failed to seed quantity break min=%d: %v", b.Min, err)
		}
	}
}

func seedGiftRules(db *sql.DB) {
	gifts := []struct {
		ID        string
		Name      string
		Threshold string
		Type      string
		Value     string
	}{
		{"free-delivery", "Free delivery over 50", "50", "shipping", "4.90"},
		{"baklava-box", "Free baklava box over 100", "100", "product", "12.00"},
		{"loyalty-points", "Double points over 200", "200", "points", "0"},
	}

	fmt.Println("Seeding Gift Rules...")
	for _, g := range gifts {
		_, err := db.Exec(`
			INSERT INTO gift_rules (id, name, condition_field, condition_op, threshold, gift_type, value, active)
			VALUES ($1, $2, 'orderTotal', '>=', $3, $4, $5, TRUE)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				threshold = EXCLUDED.threshold,
				value = EXCLUDED.value;
		`, g.ID, g.Name, g.Threshold, g.Type, g.Value)
		if err != nil {
			log.Printf("Failed to seed gift rule %s: %v", g.ID, err)
		}
	}
}

func seedAutoDiscounts(db *sql.DB) {
	discounts := []struct {
		ID       string
		Name     string
		MinTotal string
		Percent  string
	}{
		{"vol-100", "Volume discount", "100", "5"},
		{"vol-500", "Wholesale discount", "500", "10"},
	}

	fmt.Println("Seeding Auto Discounts...")
	for _, d := range discounts {
		_, err := db.Exec(`
			INSERT INTO auto_discounts (id, name, min_total, percent)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET
				min_total = EXCLUDED.min_total,
				percent = EXCLUDED.percent;
		`, d.ID, d.Name, d.MinTotal, d.Percent)
		if err != nil {
			log.Printf("Failed to seed auto discount %s: %v", d.ID, err)
		}
	}
}

func seedExemptions(db *sql.DB) {
	exemptions := []struct {
		ID         string
		CustomerID string
		Type       string
		Value      string
		Regions    string
	}{
		{"ex-charity-1", "cust-damascus-orphanage", "charity", "CH-001", "{eu,sy}"},
		{"ex-vat-1", "cust-berlin-wholesale", "vat_number", "DE123456789", "{eu}"},
	}

	fmt.Println("Seeding Customer Exemptions...")
	for _, e := range exemptions {
		_, err := db.Exec(`
			INSERT INTO customer_exemptions (id, customer_id, exemption_type, exemption_value, regions, active)
			VALUES ($1, $2, $3, $4, $5::text[], TRUE)
			ON CONFLICT (id) DO UPDATE SET
				exemption_type = EXCLUDED.exemption_type,
				exemption_value = EXCLUDED.exemption_value,
				regions = EXCLUDED.regions;
		`, e.ID, e.CustomerID, e.Type, e.Value, e.Regions)
		if err != nil {
			log.Printf("Failed to seed exemption %s: %v", e.ID, err)
		}
	}
}
