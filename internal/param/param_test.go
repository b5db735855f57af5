package param

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvFetcher(t *testing.T) {
	t.Setenv("IMAGEGEN_TEST_TOKEN", "hf_abc")
	t.Setenv("IMAGEGEN_TEST_PROMPTS", "a red fox|blurry\n\n  a blue whale  \n")

	f := EnvFetcher{}
	v, err := f.Fetch(context.Background(), "IMAGEGEN_TEST_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "hf_abc", v)

	all, err := f.FetchAll(context.Background(), "IMAGEGEN_TEST_PROMPTS")
	require.NoError(t, err)
	assert.Equal(t, []string{"a red fox|blurry", "a blue whale"}, all)

	_, err = f.Fetch(context.Background(), "IMAGEGEN_TEST_MISSING")
	assert.EqualError(t, err, "IMAGEGEN_TEST_MISSING is not set")
}

type fakeSSM struct {
	values map[string]string
	pages  [][]string
	err    error
}

func (f *fakeSSM) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Value: aws.String(f.values[aws.ToString(in.Name)])}}, nil
}

func (f *fakeSSM) GetParametersByPath(_ context.Context, in *ssm.GetParametersByPathInput, _ ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	page := 0
	if in.NextToken != nil {
		page = 1
	}
	out := &ssm.GetParametersByPathOutput{}
	for _, v := range f.pages[page] {
		out.Parameters = append(out.Parameters, types.Parameter{Value: aws.String(v)})
	}
	if page+1 < len(f.pages) {
		out.NextToken = aws.String("next")
	}
	return out, nil
}

func TestParameterStoreFetcher(t *testing.T) {
	client := &fakeSSM{
		values: map[string]string{"/imagegen/token": "hf_secret"},
		pages:  [][]string{{"a red fox"}, {"a blue whale|ocean"}},
	}
	f := &ParameterStoreFetcher{client: client}

	v, err := f.Fetch(context.Background(), "/imagegen/token")
	require.NoError(t, err)
	assert.Equal(t, "hf_secret", v)

	all, err := f.FetchAll(context.Background(), "/imagegen/prompts")
	require.NoError(t, err)
	assert.Equal(t, []string{"a red fox", "a blue whale|ocean"}, all)
}

func TestParameterStoreFetcher_Error(t *testing.T) {
	boom := errors.New("access denied")
	f := &ParameterStoreFetcher{client: &fakeSSM{err: boom}}

	_, err := f.Fetch(context.Background(), "/imagegen/token")
	assert.ErrorIs(t, err, boom)

	_, err = f.FetchAll(context.Background(), "/imagegen/prompts")
	assert.ErrorIs(t, err, boom)
}
