package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
)

func main() {
	connStr := flag.String("db", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	keep := flag.Duration("keep", 0, "keep measurements observed within this window (0 deletes all)")
	flag.Parse()

	if *connStr == "" {
		fmt.Fprintln(os.Stderr, "no database: pass -db or set DATABASE_URL")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", *connStr)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	var res sql.Result
	if *keep > 0 {
		cutoff := time.Now().Add(-*keep).Unix()
		res, err = db.Exec("DELETE FROM measurements WHERE observed_at < $1", cutoff)
	} else {
		res, err = db.Exec("TRUNCATE measurements")
	}
	if err != nil {
		panic(err)
	}

	n, _ := res.RowsAffected()
	fmt.Printf("Successfully reset measurements (%d rows removed)\n", n)
}
