// Seeds a demo room and a funded viewer so the API can be exercised by hand.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"streampay/internal/db"
	"streampay/internal/ledger"
	"streampay/internal/repository"
	"streampay/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	roomID := flag.String("room", "demo-room", "room id to create")
	host := flag.String("host", "demo-host", "host user id")
	viewer := flag.String("viewer", "demo-viewer", "viewer user id")
	balance := flag.Uint64("balance", 100_000, "viewer starting balance")
	flag.Parse()

	var store ledger.Store
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		store = repository.NewPostgresStore(db.Connect(dsn))
	} else {
		log.Println("DATABASE_URL not set, seeding an in-memory store is pointless")
		store = ledger.NewMemoryStore()
	}
	defer store.Close()

	admin := service.NewAdminService(store)
	ctx := context.Background()

	room, err := admin.CreateRoom(ctx, *host, *roomID, nil)
	if err != nil {
		log.Fatalf("create room: %v", err)
	}
	log.Printf("room %s ready (host %s, min_tip %d)", room.RoomID, room.Host, room.Settings.MinTip)

	user, err := admin.Deposit(ctx, *viewer, *balance)
	if err != nil {
		log.Fatalf("deposit: %v", err)
	}
	log.Printf("viewer %s funded, balance %s", *viewer, user.Balance)

	if os.Getenv("JWT_SECRET") != "" {
		service.InitJWT()
		token, err := service.GenerateJWT(*viewer)
		if err != nil {
			log.Fatalf("token: %v", err)
		}
		log.Printf("viewer token: %s", token)
	}
}
