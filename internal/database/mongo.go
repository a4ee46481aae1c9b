package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aleckzsalas-29/itsm2/internal/config"
	"github.com/aleckzsalas-29/itsm2/internal/database/models"
)

// Collection names
const (
	collUsuarios      = "usuarios"
	collEmpresas      = "empresas"
	collEquipos       = "equipos"
	collBitacoras     = "bitacoras"
	collServicios     = "servicios"
	collConfiguracion = "configuracion"
	collSystemConfig  = "system_config"
)

// MongoStore is the MongoDB implementation of Store. Documents use the
// UUID string as _id.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ Store = (*MongoStore)(nil)

// NewMongo connects to MongoDB
func NewMongo(ctx context.Context, cfg *config.Config) (*MongoStore, error) {
	timeout := cfg.Database.Mongo.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.Database.Mongo.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(cfg.Database.Mongo.Database),
	}, nil
}

// Ping checks the connection
func (m *MongoStore) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client
func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

// Migrate creates the indexes the queries rely on
func (m *MongoStore) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		collUsuarios: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		collEquipos: {
			{Keys: bson.D{{Key: "empresa_id", Value: 1}}},
		},
		collBitacoras: {
			{Keys: bson.D{{Key: "equipo_id", Value: 1}}},
			{Keys: bson.D{{Key: "empresa_id", Value: 1}}},
			{Keys: bson.D{{Key: "fecha", Value: -1}}},
		},
		collServicios: {
			{Keys: bson.D{{Key: "empresa_id", Value: 1}}},
		},
	}
	for coll, idx := range indexes {
		if _, err := m.db.Collection(coll).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

func mongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOneOptions) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		return nil, mongoErr(err)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*T{}
	for cur.Next(ctx) {
		var item T
		if err := cur.Decode(&item); err != nil {
			return nil, fmt.Errorf("failed to decode record: %w", err)
		}
		out = append(out, &item)
	}
	return out, cur.Err()
}

func replaceByID(ctx context.Context, coll *mongo.Collection, id models.ID, doc any) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id models.ID) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var byCreation = options.Find().SetSort(bson.D{{Key: "creado_en", Value: 1}})

// User operations

// CreateUser creates a new user. A taken email returns ErrDuplicate.
func (m *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	_, err := m.db.Collection(collUsuarios).InsertOne(ctx, u)
	return mongoErr(err)
}

// GetUser retrieves a user by ID
func (m *MongoStore) GetUser(ctx context.Context, id models.ID) (*models.User, error) {
	return findOne[models.User](ctx, m.db.Collection(collUsuarios), bson.M{"_id": id})
}

// GetUserByEmail retrieves a user by email
func (m *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, m.db.Collection(collUsuarios), bson.M{"email": email})
}

// ListUsers retrieves all users
func (m *MongoStore) ListUsers(ctx context.Context) ([]*models.User, error) {
	return findAll[models.User](ctx, m.db.Collection(collUsuarios), bson.M{}, byCreation)
}

// UpdateUser replaces a user record
func (m *MongoStore) UpdateUser(ctx context.Context, u *models.User) error {
	return replaceByID(ctx, m.db.Collection(collUsuarios), u.ID, u)
}

// DeleteUser deletes a user by ID
func (m *MongoStore) DeleteUser(ctx context.Context, id models.ID) error {
	return deleteByID(ctx, m.db.Collection(collUsuarios), id)
}

// CountUsersByRole counts users holding role
func (m *MongoStore) CountUsersByRole(ctx context.Context, role models.Role) (int, error) {
	n, err := m.db.Collection(collUsuarios).CountDocuments(ctx, bson.M{"rol": role})
	return int(n), err
}

// Empresa operations

// CreateEmpresa creates a new empresa
func (m *MongoStore) CreateEmpresa(ctx context.Context, e *models.Empresa) error {
	_, err := m.db.Collection(collEmpresas).InsertOne(ctx, e)
	return mongoErr(err)
}

// GetEmpresa retrieves an empresa by ID
func (m *MongoStore) GetEmpresa(ctx context.Context, id models.ID) (*models.Empresa, error) {
	return findOne[models.Empresa](ctx, m.db.Collection(collEmpresas), bson.M{"_id": id})
}

// ListEmpresas retrieves all empresas
func (m *MongoStore) ListEmpresas(ctx context.Context) ([]*models.Empresa, error) {
	return findAll[models.Empresa](ctx, m.db.Collection(collEmpresas), bson.M{}, byCreation)
}

// UpdateEmpresa replaces an empresa record
func (m *MongoStore) UpdateEmpresa(ctx context.Context, e *models.Empresa) error {
	return replaceByID(ctx, m.db.Collection(collEmpresas), e.ID, e)
}

// DeleteEmpresa deletes an empresa by ID
func (m *MongoStore) DeleteEmpresa(ctx context.Context, id models.ID) error {
	return deleteByID(ctx, m.db.Collection(collEmpresas), id)
}

// Equipo operations

// CreateEquipo creates a new equipo
func (m *MongoStore) CreateEquipo(ctx context.Context, e *models.Equipo) error {
	_, err := m.db.Collection(collEquipos).InsertOne(ctx, e)
	return mongoErr(err)
}

// GetEquipo retrieves an equipo by ID
func (m *MongoStore) GetEquipo(ctx context.Context, id models.ID) (*models.Equipo, error) {
	return findOne[models.Equipo](ctx, m.db.Collection(collEquipos), bson.M{"_id": id})
}

// ListEquipos retrieves equipos, optionally of one empresa
func (m *MongoStore) ListEquipos(ctx context.Context, f EquipoFilter) ([]*models.Equipo, error) {
	filter := bson.M{}
	if f.EmpresaID != "" {
		filter["empresa_id"] = f.EmpresaID
	}
	return findAll[models.Equipo](ctx, m.db.Collection(collEquipos), filter, byCreation)
}

// UpdateEquipo replaces an equipo record
func (m *MongoStore) UpdateEquipo(ctx context.Context, e *models.Equipo) error {
	return replaceByID(ctx, m.db.Collection(collEquipos), e.ID, e)
}

// DeleteEquipo deletes an equipo by ID
func (m *MongoStore) DeleteEquipo(ctx context.Context, id models.ID) error {
	return deleteByID(ctx, m.db.Collection(collEquipos), id)
}

// Bitácora operations

// CreateBitacora creates a new bitácora
func (m *MongoStore) CreateBitacora(ctx context.Context, b *models.Bitacora) error {
	_, err := m.db.Collection(collBitacoras).InsertOne(ctx, b)
	return mongoErr(err)
}

// GetBitacora retrieves a bitácora by ID
func (m *MongoStore) GetBitacora(ctx context.Context, id models.ID) (*models.Bitacora, error) {
	return findOne[models.Bitacora](ctx, m.db.Collection(collBitacoras), bson.M{"_id": id})
}

// ListBitacoras retrieves bitácoras matching f, newest first
func (m *MongoStore) ListBitacoras(ctx context.Context, f BitacoraFilter) ([]*models.Bitacora, error) {
	filter := bson.M{}
	if f.EquipoID != "" {
		filter["equipo_id"] = f.EquipoID
	}
	if f.EmpresaID != "" {
		filter["empresa_id"] = f.EmpresaID
	}
	fecha := bson.M{}
	if !f.Desde.IsZero() {
		fecha["$gte"] = f.Desde.UTC()
	}
	if !f.Hasta.IsZero() {
		fecha["$lte"] = f.Hasta.UTC()
	}
	if len(fecha) > 0 {
		filter["fecha"] = fecha
	}
	opts := options.Find().SetSort(bson.D{{Key: "fecha", Value: -1}, {Key: "creado_en", Value: -1}})
	return findAll[models.Bitacora](ctx, m.db.Collection(collBitacoras), filter, opts)
}

// UpdateBitacora replaces a bitácora record
func (m *MongoStore) UpdateBitacora(ctx context.Context, b *models.Bitacora) error {
	return replaceByID(ctx, m.db.Collection(collBitacoras), b.ID, b)
}

// DeleteBitacora deletes a bitácora by ID
func (m *MongoStore) DeleteBitacora(ctx context.Context, id models.ID) error {
	return deleteByID(ctx, m.db.Collection(collBitacoras), id)
}

// Servicio operations

// CreateServicio creates a new servicio
func (m *MongoStore) CreateServicio(ctx context.Context, s *models.Servicio) error {
	_, err := m.db.Collection(collServicios).InsertOne(ctx, s)
	return mongoErr(err)
}

// GetServicio retrieves a servicio by ID
func (m *MongoStore) GetServicio(ctx context.Context, id models.ID) (*models.Servicio, error) {
	return findOne[models.Servicio](ctx, m.db.Collection(collServicios), bson.M{"_id": id})
}

// ListServicios retrieves servicios matching f
func (m *MongoStore) ListServicios(ctx context.Context, f ServicioFilter) ([]*models.Servicio, error) {
	filter := bson.M{}
	if f.EmpresaID != "" {
		filter["empresa_id"] = f.EmpresaID
	}
	if f.SoloActivos {
		filter["activo"] = true
	}
	return findAll[models.Servicio](ctx, m.db.Collection(collServicios), filter, byCreation)
}

// UpdateServicio replaces a servicio record
func (m *MongoStore) UpdateServicio(ctx context.Context, s *models.Servicio) error {
	return replaceByID(ctx, m.db.Collection(collServicios), s.ID, s)
}

// DeleteServicio deletes a servicio by ID
func (m *MongoStore) DeleteServicio(ctx context.Context, id models.ID) error {
	return deleteByID(ctx, m.db.Collection(collServicios), id)
}

// Dashboard counters

// CountEmpresas counts all empresas
func (m *MongoStore) CountEmpresas(ctx context.Context) (int, error) {
	n, err := m.db.Collection(collEmpresas).CountDocuments(ctx, bson.M{})
	return int(n), err
}

// CountEquiposByEstado counts equipos per estado
func (m *MongoStore) CountEquiposByEstado(ctx context.Context) (map[string]int, error) {
	return countByEstado(ctx, m.db.Collection(collEquipos))
}

// CountBitacorasByEstado counts bitácoras per estado
func (m *MongoStore) CountBitacorasByEstado(ctx context.Context) (map[string]int, error) {
	return countByEstado(ctx, m.db.Collection(collBitacoras))
}

func countByEstado(ctx context.Context, coll *mongo.Collection) (map[string]int, error) {
	cur, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$estado"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := map[string]int{}
	for cur.Next(ctx) {
		var row struct {
			Estado string `bson:"_id"`
			N      int    `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode count: %w", err)
		}
		counts[row.Estado] = row.N
	}
	return counts, cur.Err()
}

// TotalServiciosActivos counts active servicios and sums their monthly cost
func (m *MongoStore) TotalServiciosActivos(ctx context.Context) (ServicioTotals, error) {
	var t ServicioTotals
	cur, err := m.db.Collection(collServicios).Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"activo": true}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "costo", Value: bson.D{{Key: "$sum", Value: "$costo_mensual"}}},
		}}},
	})
	if err != nil {
		return t, err
	}
	defer cur.Close(ctx)

	if cur.Next(ctx) {
		var row struct {
			N     int     `bson:"n"`
			Costo float64 `bson:"costo"`
		}
		if err := cur.Decode(&row); err != nil {
			return t, fmt.Errorf("failed to decode totals: %w", err)
		}
		t.Count, t.CostoMensual = row.N, row.Costo
	}
	return t, cur.Err()
}

// Configuración operations

// GetConfiguracion returns the singleton configuration, or ErrNotFound
// before the first save.
func (m *MongoStore) GetConfiguracion(ctx context.Context) (*models.Configuracion, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "actualizado_en", Value: -1}})
	return findOne[models.Configuracion](ctx, m.db.Collection(collConfiguracion), bson.M{}, opts)
}

// SaveConfiguracion inserts or replaces the configuration record
func (m *MongoStore) SaveConfiguracion(ctx context.Context, c *models.Configuracion) error {
	_, err := m.db.Collection(collConfiguracion).ReplaceOne(ctx, bson.M{"_id": c.ID}, c, options.Replace().SetUpsert(true))
	return mongoErr(err)
}

// System config operations

type systemConfigDoc struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// SetSystemConfig sets a system configuration value
func (m *MongoStore) SetSystemConfig(ctx context.Context, key, value string) error {
	doc := systemConfigDoc{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := m.db.Collection(collSystemConfig).ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return mongoErr(err)
}

// GetSystemConfig retrieves a system configuration value
func (m *MongoStore) GetSystemConfig(ctx context.Context, key string) (string, error) {
	doc, err := findOne[systemConfigDoc](ctx, m.db.Collection(collSystemConfig), bson.M{"_id": key})
	if err != nil {
		return "", err
	}
	return doc.Value, nil
}
