// Command gradebook serves the gradebook administration dashboard.
package main

import (
	"context"
	"log"

	"github.com/dalemusser/gradebook/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		log.Fatal(err)
	}
}
