package reminder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplate(t *testing.T) {
	data := TemplateData{
		ClientName:      "Ana",
		Resource:        "Toyota Corolla",
		Date:            "2025-03-10",
		BusinessName:    "Oficina Costa",
		BusinessContact: "+351912000000",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "all placeholders",
			template: "Hi {client_name}, your {resource} is due on {date}. {business_name} {business_contact}",
			want:     "Hi Ana, your Toyota Corolla is due on 2025-03-10. Oficina Costa +351912000000",
		},
		{
			name:     "repeated placeholder",
			template: "{client_name} {client_name}",
			want:     "Ana Ana",
		},
		{
			name:     "unknown placeholder passes through",
			template: "Hi {client_name}, see {unknown_token}",
			want:     "Hi Ana, see {unknown_token}",
		},
		{
			name:     "no placeholders",
			template: "plain text",
			want:     "plain text",
		},
		{
			name:     "empty template",
			template: "",
			want:     "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderTemplate(tt.template, data))
		})
	}
}

func TestRenderTemplateEmptyValues(t *testing.T) {
	got := RenderTemplate("Hi {client_name}, {resource} due {date}", TemplateData{Date: "2025-03-10"})
	assert.Equal(t, "Hi ,  due 2025-03-10", got)
}
