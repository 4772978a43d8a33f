package roster

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/flextech/employees-backend/internal/users"
	"github.com/flextech/employees-backend/pkg/db/models"
	"github.com/flextech/employees-backend/pkg/enums"
	pkgerrors "github.com/flextech/employees-backend/pkg/errors"
	"github.com/flextech/employees-backend/pkg/logger"
)

const dateLayout = "2006-01-02"

// exportHeader defines the column order of a roster download.
var exportHeader = []string{
	"id", "employeeCode", "fullName", "email", "phoneNumber",
	"departmentId", "positionId", "address", "dateOfBirth",
	"dateIn", "dateOut", "gender", "status", "role", "description",
	"createdAt",
}

type listRepository interface {
	ListAll(ctx context.Context) ([]models.User, error)
}

type bulkCreator interface {
	BulkCreate(ctx context.Context, inputs []users.CreateUserInput) *users.BulkResult
}

// Service handles CSV export and import of the employee roster.
type Service struct {
	repo  listRepository
	users bulkCreator
	logg  *logger.Logger
}

// NewService wires the roster service.
func NewService(repo listRepository, creator bulkCreator, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("list repository is required")
	}
	if creator == nil {
		return nil, fmt.Errorf("bulk creator is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Service{repo: repo, users: creator, logg: logg}, nil
}

// ExportCSV streams every live user as CSV, newest first.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users for export")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv header")
	}
	for i := range list {
		if err := cw.Write(exportRow(&list[i])); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush csv")
	}

	s.logg.Info(s.logg.WithField(ctx, "rows", len(list)), "roster exported")
	return nil
}

// ImportCSV parses the upload and creates one account per row. Rows that fail
// to parse or validate are reported individually; the rest still go through.
// Item indexes refer to data rows, starting at 1 for the first row after the
// header.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*users.BulkResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv file is empty")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read csv header")
	}

	columns := map[string]int{}
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"email", "fullName", "employeeCode", "password"} {
		if _, ok := columns[required]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv is missing required columns").
				WithField(required, "column is required")
		}
	}

	var (
		inputs     []users.CreateUserInput
		inputRows  []int
		parseFails []users.BulkItemResult
	)

	row := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			parseFails = append(parseFails, users.BulkItemResult{
				Index:   row,
				Message: fmt.Sprintf("malformed csv row: %v", err),
			})
			continue
		}

		input, fields := parseRow(columns, record)
		if len(fields) > 0 {
			parseFails = append(parseFails, users.BulkItemResult{
				Index:   row,
				Email:   input.Email,
				Message: "invalid row values",
				Fields:  fields,
			})
			continue
		}
		inputs = append(inputs, input)
		inputRows = append(inputRows, row)
	}

	result := s.users.BulkCreate(ctx, inputs)
	for i := range result.Items {
		result.Items[i].Index = inputRows[result.Items[i].Index]
	}
	result.Items = append(result.Items, parseFails...)
	result.Failed += len(parseFails)
	sort.Slice(result.Items, func(i, j int) bool {
		return result.Items[i].Index < result.Items[j].Index
	})

	ctx = s.logg.WithFields(ctx, map[string]any{
		"rows":      row,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	})
	s.logg.Info(ctx, "roster import finished")
	return result, nil
}

func exportRow(u *models.User) []string {
	return []string{
		strconv.FormatUint(uint64(u.ID), 10),
		strDeref(u.EmployeeCode),
		u.FullName,
		u.Email,
		u.PhoneNumber,
		intDeref(u.DepartmentID),
		intDeref(u.PositionID),
		strDeref(u.Address),
		dateDeref(u.DateOfBirth),
		dateDeref(u.DateIn),
		dateDeref(u.DateOut),
		genderDeref(u.Gender),
		u.Status.String(),
		roleDeref(u.Role),
		strDeref(u.Description),
		u.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func parseRow(columns map[string]int, record []string) (users.CreateUserInput, map[string][]string) {
	fields := map[string][]string{}
	cell := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	input := users.CreateUserInput{
		FullName:    cell("fullName"),
		Email:       cell("email"),
		PhoneNumber: cell("phoneNumber"),
		Password:    cell("password"),
	}

	if code := cell("employeeCode"); code != "" {
		input.EmployeeCode = &code
	}
	if raw := cell("departmentId"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			input.DepartmentID = &v
		} else {
			fields["departmentId"] = append(fields["departmentId"], "must be a number")
		}
	}
	if raw := cell("positionId"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			input.PositionID = &v
		} else {
			fields["positionId"] = append(fields["positionId"], "must be a number")
		}
	}
	if raw := cell("role"); raw != "" {
		if role, err := enums.ParseUserRole(raw); err == nil {
			input.Role = &role
		} else {
			fields["role"] = append(fields["role"], "role must be admin or user")
		}
	}
	if raw := cell("status"); raw != "" {
		if status, err := enums.ParseUserStatus(raw); err == nil {
			input.Status = &status
		} else {
			fields["status"] = append(fields["status"], "status must be active or inactive")
		}
	}
	if raw := cell("dateIn"); raw != "" {
		if t, err := time.Parse(dateLayout, raw); err == nil {
			input.DateIn = &t
		} else {
			fields["dateIn"] = append(fields["dateIn"], "must be formatted YYYY-MM-DD")
		}
	}
	if raw := cell("dateOut"); raw != "" {
		if t, err := time.Parse(dateLayout, raw); err == nil {
			input.DateOut = &t
		} else {
			fields["dateOut"] = append(fields["dateOut"], "must be formatted YYYY-MM-DD")
		}
	}

	return input, fields
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intDeref(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func dateDeref(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}

func genderDeref(g *enums.Gender) string {
	if g == nil {
		return ""
	}
	return g.String()
}

func roleDeref(r *enums.UserRole) string {
	if r == nil {
		return ""
	}
	return r.String()
}
