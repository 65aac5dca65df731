package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/pflag"

	grpcapi "github.com/olyamironova/order-matcher/internal/api/grpc"
)

func main() {
	var (
		addr       = pflag.String("addr", "localhost:9090", "order matcher gRPC address")
		subCommand = pflag.StringP("sub-command", "s", "", "submit | retrieve | cancel | quote")
		customerID = pflag.Uint64("customer-id", 0, "customer id")
		orderID    = pflag.Uint64("order-id", 0, "order id")
		instrument = pflag.StringP("instrument", "t", "BTC_USD", "instrument, e.g. BTC_USD")
		direction  = pflag.StringP("direction", "d", "BUY", "BUY or SELL")
		orderType  = pflag.String("order-type", "LIMIT", "LIMIT or MARKET")
		price      = pflag.Int64P("price", "p", 0, "limit price in the instrument's minor units")
		volume     = pflag.Int64P("volume", "v", 0, "volume")
		timeout    = pflag.Duration("timeout", 5*time.Second, "request timeout")
	)
	pflag.Parse()

	client, err := grpcapi.NewClient(*addr)
	if err != nil {
		log.Fatalf("failed to connect to %s: %v", *addr, err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *subCommand {
	case "submit":
		res, err := client.SubmitOrder(ctx, &grpcapi.SubmitOrderRequest{
			CustomerID:     *customerID,
			Instrument:     *instrument,
			OrderDirection: *direction,
			OrderType:      *orderType,
			LimitPrice:     *price,
			Volume:         *volume,
		})
		exitOnErr(err)
		printJSON(res)

	case "retrieve":
		res, err := client.RetrieveOrder(ctx, &grpcapi.OrderReference{OrderID: *orderID})
		exitOnErr(err)
		if res.Order == nil {
			fmt.Printf("Order %d not found!\n", *orderID)
			return
		}
		printJSON(res.Order)

	case "cancel":
		res, err := client.CancelOrder(ctx, &grpcapi.OrderReference{OrderID: *orderID})
		exitOnErr(err)
		if !res.OrderWasFound {
			fmt.Printf("Order %d not found!\n", *orderID)
			return
		}
		fmt.Printf("Order %d is now: %s\n", *orderID, res.FinalOrderStatus)

	case "quote":
		res, err := client.GetQuote(ctx, &grpcapi.InstrumentReference{Instrument: *instrument})
		exitOnErr(err)
		fmt.Printf("%s bid=%s ask=%s\n", res.Instrument, priceOrDash(res.Bid), priceOrDash(res.Ask))

	default:
		fmt.Fprintf(os.Stderr, "unknown sub-command %q\n", *subCommand)
		pflag.Usage()
		os.Exit(2)
	}
}

func priceOrDash(price *grpcapi.Int64Value) string {
	if price == nil {
		return "-"
	}
	return fmt.Sprint(price.GetValue())
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	exitOnErr(err)
	fmt.Println(string(b))
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
