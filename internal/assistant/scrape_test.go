package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrape(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Scraped
	}{
		{
			name: "name and email",
			text: "My name is Jane Doe and my email is jane@example.com",
			want: Scraped{UserInfo: UserInfo{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}},
		},
		{
			name: "lowercase self introduction",
			text: "i am bob smith",
			want: Scraped{UserInfo: UserInfo{FirstName: "Bob", LastName: "Smith"}},
		},
		{
			name: "i am without a name",
			text: "I am interested in Data Science",
			want: Scraped{WorkshopTitle: "Data Science"},
		},
		{
			name: "later name after a non-name",
			text: "I am new here, my name is jane",
			want: Scraped{UserInfo: UserInfo{FirstName: "Jane"}},
		},
		{
			name: "first name only",
			text: "my name is Jane and I can't wait",
			want: Scraped{UserInfo: UserInfo{FirstName: "Jane"}},
		},
		{
			name: "i am followed by a verb",
			text: "I am registering for Web Dev",
			want: Scraped{},
		},
		{
			name: "second word is not a surname",
			text: "I am Priya for the data class",
			want: Scraped{UserInfo: UserInfo{FirstName: "Priya"}},
		},
		{
			name: "phone",
			text: "phone: +44 20 7946 0958",
			want: Scraped{UserInfo: UserInfo{Phone: "+44 20 7946 0958"}},
		},
		{
			name: "affirmation",
			text: "Yes please!",
			want: Scraped{Affirmed: true},
		},
		{
			name: "new title",
			text: "Actually, sign up for Advanced Go instead",
			want: Scraped{WorkshopTitle: "Advanced Go instead"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Scrape(tt.text))
		})
	}
}
