package companieshouse

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"leadscout-backend/lib/testutil"

	"github.com/stretchr/testify/require"
)

const testApiKey = "test-api-key"

func newTestServer(t testing.TB, handler http.HandlerFunc) (*httptest.Server, *Client) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		if !ok || user != testApiKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(ClientOptions{
		BaseUrl:           server.URL,
		ApiKey:            testApiKey,
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)

	return server, client
}

func TestGetProfile(t *testing.T) {
	cleanup := testutil.Setup(t, "scrapers/companieshouse")
	defer cleanup()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/company/01234567", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write(testutil.ReadFixture(t, "profile.json"))
	})

	profile, err := client.GetProfile(context.Background(), "01234567")
	require.NoError(t, err)

	require.Equal(t, "ACME WASTE MANAGEMENT LIMITED", profile.CompanyName)
	require.Equal(t, "active", profile.CompanyStatus)
	require.Equal(t, "1998-03-12", profile.DateOfCreation)
	require.Equal(t, "ltd", profile.Type)
	require.Equal(t, []string{"38110", "38210"}, profile.SicCodes)
	require.Equal(t, "2023-12-31", profile.Accounts.LastAccounts.MadeUpTo)
	require.Equal(
		t,
		"1 Bin Lane, Leeds, West Yorkshire, LS1 4AP, England",
		profile.RegisteredOfficeAddress.Format(),
	)
}

func TestGetOfficers(t *testing.T) {
	cleanup := testutil.Setup(t, "scrapers/companieshouse")
	defer cleanup()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/company/01234567/officers", r.URL.Path)
		require.Equal(t, "100", r.URL.Query().Get("items_per_page"))
		w.Header().Set("Content-Type", "application/json")
		w.Write(testutil.ReadFixture(t, "officers.json"))
	})

	officers, err := client.GetOfficers(context.Background(), "01234567")
	require.NoError(t, err)
	require.Len(t, officers, 3)

	require.Equal(t, "HIGGINS, Raymond", officers[0].DisplayName())
	require.Equal(t, "director", officers[0].OfficerRole)
	require.Empty(t, officers[0].ResignedOn)
	require.NotNil(t, officers[0].DateOfBirth)
	require.Equal(t, 1962, officers[0].DateOfBirth.Year)
	require.Equal(t, 4, officers[0].DateOfBirth.Month)

	// structured name parts win over the flat name field
	require.Equal(t, "Mrs Anita Patel", officers[1].DisplayName())
	require.Equal(t, "2019-06-30", officers[1].ResignedOn)

	require.Equal(t, "BLACKWOOD SECRETARIES LTD", officers[2].DisplayName())
	require.Nil(t, officers[2].DateOfBirth)
}

func TestGetFilingHistory(t *testing.T) {
	cleanup := testutil.Setup(t, "scrapers/companieshouse")
	defer cleanup()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/company/01234567/filing-history", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write(testutil.ReadFixture(t, "filing_history.json"))
	})

	filings, err := client.GetFilingHistory(context.Background(), "01234567")
	require.NoError(t, err)
	require.Len(t, filings, 3)

	require.Equal(t, "confirmation-statement", filings[0].Category)
	require.Equal(t, "accounts-with-accounts-type-full", filings[1].Category)
	// turnover values arrive as strings or numbers depending on the filing
	require.Equal(t, "£2,400,000", filings[1].Data["turnover"])
	require.Equal(t, float64(1850000), filings[2].Data["turnover"])
}

func TestSearchAllCompanies(t *testing.T) {
	cleanup := testutil.Setup(t, "scrapers/companieshouse")
	defer cleanup()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/companies", r.URL.Path)
		require.Equal(t, "recycling", r.URL.Query().Get("q"))
		require.Equal(t, "active", r.URL.Query().Get("restrictions"))

		startIndex, err := strconv.Atoi(r.URL.Query().Get("start_index"))
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		if startIndex == 0 {
			w.Write(testutil.ReadFixture(t, "search.json"))
			return
		}
		// short page ends the pagination
		fmt.Fprint(w, `{
			"total_results": 3,
			"items_per_page": 2,
			"start_index": 2,
			"items": [
				{
					"title": "TRISTAR RECYCLING LTD",
					"company_number": "09999999",
					"company_status": "active"
				}
			]
		}`)
	})

	items, err := client.SearchAllCompanies(context.Background(), "recycling", SearchOptions{
		MaxResults:   10,
		ItemsPerPage: 2,
		ActiveOnly:   true,
	})
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "01234567", items[0].CompanyNumber)
	require.Equal(t, "07654321", items[1].CompanyNumber)
	require.Equal(t, "09999999", items[2].CompanyNumber)
}

func TestSearchAllCompaniesMaxResults(t *testing.T) {
	cleanup := testutil.Setup(t, "scrapers/companieshouse")
	defer cleanup()

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(testutil.ReadFixture(t, "search.json"))
	})

	// every page is full, so only the cap stops the loop
	items, err := client.SearchAllCompanies(context.Background(), "recycling", SearchOptions{
		MaxResults:   4,
		ItemsPerPage: 2,
	})
	require.NoError(t, err)
	require.Len(t, items, 4)
}

func TestBadApiKey(t *testing.T) {
	cleanup := testutil.Setup(t, "scrapers/companieshouse")
	defer cleanup()

	server, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	})

	client, err := NewClient(ClientOptions{
		BaseUrl:           server.URL,
		ApiKey:            "wrong-key",
		RequestsPerSecond: 1000,
	})
	require.NoError(t, err)

	_, err = client.GetProfile(context.Background(), "01234567")
	require.ErrorContains(t, err, "authentication failed")
}

func TestNewClientRequiresApiKey(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)
}

func TestExtractCompanyNumber(t *testing.T) {
	cases := []struct {
		label    string
		expected string
	}{
		{"ACME WASTE MANAGEMENT LIMITED (01234567)", "01234567"},
		{"Brights Cleaning (07654321) - North", "07654321"},
		{"No number here", ""},
		{"Short number (1234567)", ""},
		{"(12345678)", "12345678"},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, ExtractCompanyNumber(c.label), "label: %q", c.label)
	}
}

func TestLiveSearch(t *testing.T) {
	apiKey := os.Getenv("COMPANIES_API_KEY")
	if apiKey == "" {
		t.Skip("skipping live test because COMPANIES_API_KEY is not set")
	}
	cleanup := testutil.Setup(t, "scrapers/companieshouse")
	defer cleanup()

	client, err := NewClient(ClientOptions{ApiKey: apiKey})
	require.NoError(t, err)

	page, err := client.SearchCompanies(context.Background(), SearchQuery{
		Query:        "waste management",
		ItemsPerPage: 5,
		ActiveOnly:   true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, page.Items)
	require.NotEmpty(t, page.Items[0].CompanyNumber)
}
