// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 GigDir Contributors

//go:build integration

package postgres_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	pgcontainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gigdir/gigdir/internal/auth"
	"github.com/gigdir/gigdir/internal/auth/postgres"
	"github.com/gigdir/gigdir/internal/store"
)

// setupPostgresContainer starts a PostgreSQL container and applies migrations.
func setupPostgresContainer() (*pgxpool.Pool, func(), error) {
	ctx := context.Background()

	container, err := pgcontainer.Run(ctx,
		"postgres:16-alpine",
		pgcontainer.WithDatabase("gigdir_test"),
		pgcontainer.WithUsername("gigdir"),
		pgcontainer.WithPassword("gigdir"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		return nil, nil, err
	}
	if err := migrator.Up(); err != nil {
		return nil, nil, err
	}
	if err := migrator.Close(); err != nil {
		return nil, nil, err
	}

	pool, err := store.Connect(ctx, connStr)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}

	return pool, cleanup, nil
}

func mustResetToken(userID uuid.UUID, token string) *auth.ResetToken {
	rt, err := auth.NewResetToken(userID, token)
	Expect(err).NotTo(HaveOccurred())
	return rt
}

func insertUser(pool *pgxpool.Pool, email, hash, role string) uuid.UUID {
	ctx := context.Background()
	var id uuid.UUID
	err := pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING user_id
	`, email, hash, role).Scan(&id)
	Expect(err).NotTo(HaveOccurred())
	return id
}

var _ = Describe("Repositories", func() {
	var pool *pgxpool.Pool
	var cleanup func()

	BeforeEach(func() {
		var err error
		pool, cleanup, err = setupPostgresContainer()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		cleanup()
	})

	Describe("UserRepository", func() {
		var repo *postgres.UserRepository

		BeforeEach(func() {
			repo = postgres.NewUserRepository(pool)
		})

		It("retrieves a user by email regardless of case", func() {
			ctx := context.Background()
			id := insertUser(pool, "singer@example.com", "$argon2id$hash", auth.RoleUser)

			user, err := repo.GetByEmail(ctx, "SINGER@example.COM")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(id))
			Expect(user.Email).To(Equal("singer@example.com"))
			Expect(user.Role).To(Equal(auth.RoleUser))
		})

		It("returns ErrNotFound for an unknown email", func() {
			ctx := context.Background()
			_, err := repo.GetByEmail(ctx, "nobody@example.com")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})

		It("retrieves a user by id", func() {
			ctx := context.Background()
			id := insertUser(pool, "singer@example.com", "$argon2id$hash", auth.RoleAdmin)

			user, err := repo.GetByID(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Role).To(Equal(auth.RoleAdmin))
		})

		It("updates only the password hash", func() {
			ctx := context.Background()
			id := insertUser(pool, "singer@example.com", "$argon2id$old", auth.RoleUser)

			err := repo.UpdatePassword(ctx, id, "$argon2id$new")
			Expect(err).NotTo(HaveOccurred())

			user, err := repo.GetByID(ctx, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.PasswordHash).To(Equal("$argon2id$new"))
			Expect(user.Email).To(Equal("singer@example.com"))
		})

		It("rejects duplicate emails differing only in case", func() {
			ctx := context.Background()
			insertUser(pool, "singer@example.com", "$argon2id$hash", auth.RoleUser)

			_, err := pool.Exec(ctx, `
				INSERT INTO users (email, password_hash, role)
				VALUES ($1, $2, $3)
			`, "Singer@Example.com", "$argon2id$hash", auth.RoleUser)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ResetTokenRepository", func() {
		var users *postgres.UserRepository
		var repo *postgres.ResetTokenRepository
		var userID uuid.UUID

		BeforeEach(func() {
			users = postgres.NewUserRepository(pool)
			repo = postgres.NewResetTokenRepository(pool)
			userID = insertUser(pool, "singer@example.com", "$argon2id$old", auth.RoleUser)
		})

		It("stores and retrieves a token", func() {
			ctx := context.Background()
			token := mustResetToken(userID, "tok111")

			Expect(repo.Create(ctx, token)).To(Succeed())

			got, err := repo.GetByToken(ctx, "tok111")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.UserID).To(Equal(userID))
			Expect(got.CreatedAt).To(BeTemporally("~", token.CreatedAt, time.Second))
		})

		It("rejects duplicate tokens", func() {
			ctx := context.Background()
			Expect(repo.Create(ctx, mustResetToken(userID, "tok111"))).To(Succeed())

			err := repo.Create(ctx, mustResetToken(userID, "tok111"))
			Expect(err).To(MatchError(auth.ErrDuplicateToken))
		})

		It("redeems a token exactly once", func() {
			ctx := context.Background()
			Expect(repo.Create(ctx, mustResetToken(userID, "tok111"))).To(Succeed())

			Expect(repo.Redeem(ctx, "tok111", userID, "$argon2id$new")).To(Succeed())

			user, err := users.GetByID(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.PasswordHash).To(Equal("$argon2id$new"))

			_, err = repo.GetByToken(ctx, "tok111")
			Expect(err).To(MatchError(auth.ErrNotFound))

			err = repo.Redeem(ctx, "tok111", userID, "$argon2id$other")
			Expect(err).To(MatchError(auth.ErrNotFound))

			user, err = users.GetByID(ctx, userID)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.PasswordHash).To(Equal("$argon2id$new"), "failed redemption must not change the hash")
		})

		It("drops tokens when the user is deleted", func() {
			ctx := context.Background()
			Expect(repo.Create(ctx, mustResetToken(userID, "tok111"))).To(Succeed())

			_, err := pool.Exec(ctx, `DELETE FROM users WHERE user_id = $1`, userID)
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.GetByToken(ctx, "tok111")
			Expect(err).To(MatchError(auth.ErrNotFound))
		})
	})
})
