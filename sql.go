package main

import (
	"database/sql"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/iochen/lcgrewind/lcg"
)

type Storage struct {
	*sql.DB
}

func New(dataSourceName string) (*Storage, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return &Storage{}, err
	}
	if err := db.Ping(); err != nil {
		return &Storage{}, err
	}
	return &Storage{DB: db}, nil
}

func (s *Storage) InsertGeneratorIfNonExist(gen *lcg.Generator) error {
	_, err := s.Exec("INSERT INTO lcgrewind.generator(modulus, multiplier, increment, uniq) VALUES ($1,$2,$3,true) ON CONFLICT DO NOTHING;",
		gen.Modulus, gen.Multiplier, gen.Increment)
	return err
}

func (s *Storage) QueryGenerator() (*lcg.Generator, error) {
	gen := &lcg.Generator{}
	err := s.QueryRow("SELECT modulus, multiplier, increment FROM lcgrewind.generator WHERE uniq=true;").
		Scan(&gen.Modulus, &gen.Multiplier, &gen.Increment)
	if err != nil {
		return &lcg.Generator{}, err
	}
	if err := gen.Init(); err != nil {
		return &lcg.Generator{}, err
	}
	return gen, nil
}

func (s *Storage) InsertRecovery(rec *Recovery) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec("INSERT INTO lcgrewind.recovery(id, date, modulus, multiplier, increment, key) VALUES ($1,$2,$3,$4,$5,$6)",
		rec.ID, rec.Date, rec.Generator.Modulus, rec.Generator.Multiplier, rec.Generator.Increment, rec.Key())
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO lcgrewind.trace(recovery_id, idx, a, b) VALUES ($1,$2,$3,$4)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, state := range rec.Trace {
		if _, err := stmt.Exec(rec.ID, i, state.A, state.B); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *Storage) QueryRecovery(id uuid.UUID) (*Recovery, error) {
	rec := &Recovery{ID: id}
	err := s.QueryRow("SELECT date, modulus, multiplier, increment FROM lcgrewind.recovery WHERE id=$1;", id).
		Scan(&rec.Date, &rec.Generator.Modulus, &rec.Generator.Multiplier, &rec.Generator.Increment)
	if err != nil {
		return &Recovery{}, err
	}
	if err := rec.Generator.Init(); err != nil {
		return &Recovery{}, err
	}

	rows, err := s.Query("SELECT a, b FROM lcgrewind.trace WHERE recovery_id=$1 ORDER BY idx;", id)
	if err != nil {
		return &Recovery{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var state lcg.State
		if err := rows.Scan(&state.A, &state.B); err != nil {
			return &Recovery{}, err
		}
		rec.Trace = append(rec.Trace, state)
	}
	if err := rows.Err(); err != nil {
		return &Recovery{}, err
	}
	return rec, nil
}
