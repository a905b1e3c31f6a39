package api

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adeilh/employee-registry/employee"
	"github.com/adeilh/employee-registry/httpx"
)

// Client is a typed consumer of the registry API.
type Client struct {
	http *httpx.Client
}

func NewClient(opts ...httpx.ClientOption) *Client {
	return &Client{http: httpx.NewClient(opts...)}
}

// List fetches one page of the employee list projection. Zero values for
// page and limit fall back to the server defaults.
func (c *Client) List(ctx context.Context, page, limit int) ([]employee.Summary, error) {
	params := map[string]string{}
	if page > 0 {
		params["page"] = strconv.Itoa(page)
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	var summaries []employee.Summary
	if _, err := c.http.Get(ctx, "/employees", &summaries, httpx.WithQuery(params)); err != nil {
		return nil, err
	}
	return summaries, nil
}

func (c *Client) Get(ctx context.Context, id int64) (employee.Employee, error) {
	var emp employee.Employee
	if _, err := c.http.Get(ctx, fmt.Sprintf("/employees/%d", id), &emp); err != nil {
		return employee.Employee{}, err
	}
	return emp, nil
}

func (c *Client) Create(ctx context.Context, emp employee.Employee) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	if _, err := c.http.Post(ctx, "/employees", emp, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

func (c *Client) Update(ctx context.Context, id int64, emp employee.Employee) error {
	_, err := c.http.Put(ctx, fmt.Sprintf("/employees/%d", id), emp, nil)
	return err
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	_, err := c.http.Delete(ctx, fmt.Sprintf("/employees/%d", id), nil)
	return err
}
